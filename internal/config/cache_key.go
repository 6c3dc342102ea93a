package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// ExamQuestionsKey returns the cache key for an exam's grading view of its questions
func (r *CacheKeyStruct) ExamQuestionsKey(examID uuid.UUID) string {
	return fmt.Sprintf("exam:%s:questions", examID)
}

// SessionMonitorChannel returns the Redis PubSub channel name for a session monitor
func (r *CacheKeyStruct) SessionMonitorChannel(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:monitor", sessionID)
}

// SweeperLockKey returns the key guarding a single expiry sweep across replicas
func (r *CacheKeyStruct) SweeperLockKey() string {
	return "sweeper:expire_attempts:lock"
}

var CacheKey = NewCacheKeyStruct()
