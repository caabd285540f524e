package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidShellKey ErrCode = "INVALID_SHELL_KEY"
	ErrTokenRequired   ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid    ErrCode = "TOKEN_INVALID"
	ErrTokenExpired    ErrCode = "TOKEN_EXPIRED"

	// ─── Authorization ─────────────────────────────────────────────────
	ErrForbidden          ErrCode = "FORBIDDEN"
	ErrLearnerAccessOnly  ErrCode = "LEARNER_ACCESS_ONLY"
	ErrAuthorAccessOnly   ErrCode = "AUTHOR_ACCESS_ONLY"
	ErrActivityNotAllowed ErrCode = "ACTIVITY_NOT_ALLOWED"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidID      ErrCode = "INVALID_ID"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"
	ErrInvalidContent ErrCode = "INVALID_CONTENT"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound          ErrCode = "NOT_FOUND"
	ErrSessionNotFound   ErrCode = "SESSION_NOT_FOUND"
	ErrNotActivityAuthor ErrCode = "NOT_ACTIVITY_AUTHOR"
	ErrNoSavedResult     ErrCode = "NO_SAVED_RESULT"

	// ─── Engine ────────────────────────────────────────────────────────
	ErrUnknownLayout    ErrCode = "UNKNOWN_LAYOUT"
	ErrNotMounted       ErrCode = "NOT_MOUNTED"
	ErrNoQuestion       ErrCode = "NO_QUESTION"
	ErrSelectionFrozen  ErrCode = "SELECTION_FROZEN"
	ErrUnknownOption    ErrCode = "UNKNOWN_OPTION"
	ErrOutOfRange       ErrCode = "INDEX_OUT_OF_RANGE"
	ErrSubmitAbandoned  ErrCode = "SUBMIT_ABANDONED"
	ErrShellUnavailable ErrCode = "SHELL_UNAVAILABLE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrShellKeyNotSet ErrCode = "SHELL_KEY_NOT_CONFIGURED"
	ErrInternal       ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidShellKey:
		return "Kunci shell tidak valid."
	case ErrTokenRequired:
		return "Token autentikasi diperlukan."
	case ErrTokenInvalid:
		return "Token autentikasi tidak valid."
	case ErrTokenExpired:
		return "Token autentikasi telah kedaluwarsa."

	// ─── Authorization ─────────────────────────────────────────────────
	case ErrForbidden:
		return "Anda tidak memiliki izin untuk mengakses sumber daya ini."
	case ErrLearnerAccessOnly:
		return "Sumber daya ini terbatas untuk peserta."
	case ErrAuthorAccessOnly:
		return "Sumber daya ini terbatas untuk penyusun soal."
	case ErrActivityNotAllowed:
		return "Token tidak berlaku untuk aktivitas ini."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Validasi gagal. Silakan periksa masukan Anda."
	case ErrInvalidID:
		return "Format ID tidak valid."
	case ErrInvalidPayload:
		return "Payload permintaan tidak valid."
	case ErrInvalidContent:
		return "Dokumen konten tidak valid."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Sumber daya tidak ditemukan."
	case ErrSessionNotFound:
		return "Sesi tidak ditemukan atau telah berakhir."
	case ErrNotActivityAuthor:
		return "Anda bukan penyusun aktivitas ini."
	case ErrNoSavedResult:
		return "Belum ada hasil yang tersimpan."

	// ─── Engine ────────────────────────────────────────────────────────
	case ErrUnknownLayout:
		return "Tata letak tidak dikenali."
	case ErrNotMounted:
		return "Aktivitas belum dimuat."
	case ErrNoQuestion:
		return "Aktivitas ini tidak memiliki pertanyaan."
	case ErrSelectionFrozen:
		return "Jawaban sudah dikunci."
	case ErrUnknownOption:
		return "Pilihan jawaban tidak dikenali."
	case ErrOutOfRange:
		return "Indeks di luar jangkauan."
	case ErrSubmitAbandoned:
		return "Pengiriman jawaban gagal setelah beberapa percobaan."
	case ErrShellUnavailable:
		return "Layanan penyimpanan sedang tidak tersedia."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Terlalu banyak permintaan. Silakan coba lagi nanti."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrShellKeyNotSet:
		return "Kunci shell belum dikonfigurasi."
	case ErrInternal:
		return "Terjadi kesalahan server internal."
	default:
		return "Terjadi kesalahan yang tidak terduga."
	}
}
