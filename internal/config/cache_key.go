package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ActivityContentKey returns the cache key for an activity's authored content document
func (r *CacheKeyStruct) ActivityContentKey(activityID string) string {
	return fmt.Sprintf("activity:%s:content", activityID)
}

// LastResultKey returns the cache key for a learner's most recent result report on an activity
func (r *CacheKeyStruct) LastResultKey(activityID, userID string) string {
	return fmt.Sprintf("user:%s:activity:%s:last_result", userID, activityID)
}

// EditorDraftKey returns the cache key holding the latest unsaved editor document
func (r *CacheKeyStruct) EditorDraftKey(activityID, userID string) string {
	return fmt.Sprintf("user:%s:activity:%s:draft", userID, activityID)
}

// ActivityEventsChannel returns the Redis PubSub channel the shell listens on for an activity
func (r *CacheKeyStruct) ActivityEventsChannel(activityID string) string {
	return fmt.Sprintf("activity:%s:events", activityID)
}

var CacheKey = NewCacheKeyStruct()
