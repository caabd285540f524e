package config

type WorkerKeyStruct struct {
	PersistResultsQueue string
	PersistContentQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistResultsQueue: "persist_results_queue",
	PersistContentQueue: "persist_content_queue",
}
