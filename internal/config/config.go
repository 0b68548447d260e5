package config

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port    int
	Key     string // session + CSRF signing key
	DataDir string // seed files (users.txt, *.csv) live here
	DBPath  string
}

func Load() (*Config, error) {
	// Try loading .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	key := os.Getenv("INTELHUB_KEY")
	if len(key) < 32 {
		fmt.Println("INTELHUB_KEY not found or too short. Generating a new secure key...")
		newKey, err := generateRandomKey(32)
		if err != nil {
			return nil, fmt.Errorf("failed to generate key: %w", err)
		}

		if err := saveKeyToEnv(newKey); err != nil {
			fmt.Printf("Warning: Failed to save generated key to .env: %v\n", err)
		} else {
			fmt.Println("New INTELHUB_KEY saved to .env file.")
		}
		key = newKey
	}

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		if p, err := strconv.Atoi(portStr); err == nil {
			port = p
		}
	}

	dataDir := os.Getenv("INTELHUB_DATA_DIR")
	if dataDir == "" {
		dataDir = "DATA"
	}

	dbPath := os.Getenv("INTELHUB_DB_PATH")
	if dbPath == "" {
		dbPath = filepath.Join(dataDir, "intelligence_platform.db")
	}

	return &Config{
		Port:    port,
		Key:     key,
		DataDir: dataDir,
		DBPath:  dbPath,
	}, nil
}

func generateRandomKey(length int) (string, error) {
	b := make([]byte, length)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	// Base64 keeps the key printable in the .env file
	return base64.StdEncoding.EncodeToString(b), nil
}

func saveKeyToEnv(key string) error {
	filename := ".env"
	content, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return os.WriteFile(filename, []byte(fmt.Sprintf("INTELHUB_KEY=%s\nPORT=8080\n", key)), 0644)
	} else if err != nil {
		return err
	}

	lines := strings.Split(string(content), "\n")
	found := false
	newLines := []string{}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "INTELHUB_KEY=") {
			newLines = append(newLines, fmt.Sprintf("INTELHUB_KEY=%s", key))
			found = true
		} else if trimmed != "" {
			newLines = append(newLines, trimmed)
		}
	}

	if !found {
		newLines = append(newLines, fmt.Sprintf("INTELHUB_KEY=%s", key))
	}

	return os.WriteFile(filename, []byte(strings.Join(newLines, "\n")+"\n"), 0644)
}
