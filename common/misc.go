package common

import (
	"os"
	"strings"
)

const defaultServiceName = "kycflow"

func GetServiceName() string {
	name := strings.TrimSpace(os.Getenv("SERVICE_NAME"))
	if name == "" {
		return defaultServiceName
	}
	return name
}

func GetServiceInstance() string {
	instance, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return instance
}

func IsReleaseMode() bool {
	return os.Getenv("GIN_MODE") == "release"
}
