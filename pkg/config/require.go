package config

import (
	"fmt"
	"log"
	"time"
)

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustPositive(value int64, envName string) {
	if err := checkPositive(value, envName); err != nil {
		log.Fatal(err)
	}
}

func MustPositiveDuration(value time.Duration, envName string) {
	MustPositive(int64(value), envName)
}

func checkPositive(value int64, envName string) error {
	if value <= 0 {
		return fmt.Errorf("env %s must be positive", envName)
	}
	return nil
}
