package main

import (
	"os"
	"strconv"
	"strings"
)

type appConfig struct {
	ListenAddr     string
	Realm          string
	DefaultCharset string
	HtpasswdPath   string

	PrometheusEnabled bool
	RateLimit         float64
	RateBurst         int
}

func loadConfig() *appConfig {
	return &appConfig{
		ListenAddr:        getenvDefault("CALYPTRA_LISTEN_ADDR", ":5232"),
		Realm:             getenvDefault("CALYPTRA_REALM", "Calyptra - Password Required"),
		DefaultCharset:    getenvDefault("CALYPTRA_DEFAULT_CHARSET", "utf-8"),
		HtpasswdPath:      os.Getenv("CALYPTRA_HTPASSWD"),
		PrometheusEnabled: getenvBool("CALYPTRA_METRICS_ENABLED", false),
		RateLimit:         getenvFloat("CALYPTRA_RATE_LIMIT", 20),
		RateBurst:         getenvInt("CALYPTRA_RATE_BURST", 50),
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
