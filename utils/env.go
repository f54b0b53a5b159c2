package utils

import (
	"os"
)

func GetEnv(env string) string {
	switch env {
	case "USER_AGENT":
		userAgent, userAgentExists := os.LookupEnv("USER_AGENT")
		if !userAgentExists {
			userAgent = "channel-catalog/1.0 (+https://iptv-org.github.io)"
		}
		return userAgent
	default:
		return os.Getenv(env)
	}
}
