package variables

import (
	"log"
	"os"
	"strconv"
)

const (
	HTTP_PORT_DEFAULT = "8080"
	HTTP_PORT_NAME    = "HTTP_PORT"

	PPROF_PORT_DEFAULT = "6060"
	PPROF_PORT_NAME    = "PPROF_PORT"

	OUTBOUND_QUEUE_SIZE_DEFAULT = "256"
	OUTBOUND_QUEUE_SIZE_NAME    = "WS_OUTBOUND_QUEUE_SIZE"
)

func Env(variableName, defaultValue string) string {
	if variable := os.Getenv(variableName); variable != "" {
		log.Printf("[%s]: %s", variableName, variable)
		return variable
	}
	log.Printf("[%s_DEFAULT]: %s", variableName, defaultValue)
	return defaultValue
}

func EnvInt(variableName, defaultValue string) int {
	value, err := strconv.Atoi(Env(variableName, defaultValue))
	if err != nil {
		fallback, _ := strconv.Atoi(defaultValue)
		log.Printf("[%s]: not a number, using %d", variableName, fallback)
		return fallback
	}
	return value
}
