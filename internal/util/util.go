package util

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

var logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
	With().Timestamp().Logger()

func LogInfo(format string, v ...any) {
	logger.Info().Msgf(format, v...)
}

func LogWarn(format string, v ...any) {
	logger.Warn().Msgf(format, v...)
}

func LogError(format string, v ...any) {
	logger.Error().Msgf(format, v...)
}

func LogFatal(format string, v ...any) {
	logger.Fatal().Msgf(format, v...)
}

func DirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false
		}
		LogWarn("Error checking directory existence: %v", err)
		return false
	}
	return info.IsDir()
}

func FormatUptime(d time.Duration) string {
	seconds := int(d.Seconds()) % 60
	minutes := int(d.Minutes()) % 60
	hours := int(d.Hours())
	switch {
	case hours > 0:
		return fmt.Sprintf("%d hour%s, %d minute%s, %d second%s",
			hours, plural(hours),
			minutes, plural(minutes),
			seconds, plural(seconds))
	case minutes > 0:
		return fmt.Sprintf("%d minute%s, %d second%s",
			minutes, plural(minutes),
			seconds, plural(seconds))
	default:
		return fmt.Sprintf("%d second%s", seconds, plural(seconds))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

func GetEnvDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		LogWarn("Invalid duration for %s: %v, using default %v", key, err, fallback)
		return fallback
	}
	return d
}

func GetEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		LogWarn("Invalid int for %s: %v, using default %d", key, err, fallback)
		return fallback
	}
	return i
}

func GetEnvStr(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// NowMs is the wall clock used for all room and challenge timestamps,
// milliseconds since the epoch.
func NowMs() int64 {
	return time.Now().UnixMilli()
}

// RandomInt returns a uniform value in [0, max) from crypto/rand, falling
// back to 0 when the source fails.
func RandomInt(max int) int {
	if max <= 0 {
		return 0
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(max)))
	if err != nil {
		LogWarn("Error generating random number: %v, using fallback", err)
		return 0
	}
	return int(n.Int64())
}

// RandomToken draws length characters from alphabet. Session tokens, player
// ids and challenge ids all come from here.
func RandomToken(alphabet string, length int) string {
	out := make([]byte, length)
	for i := range out {
		out[i] = alphabet[RandomInt(len(alphabet))]
	}
	return string(out)
}

func ClampInt(value, min, max, fallback int) int {
	if value == 0 {
		return fallback
	}
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
