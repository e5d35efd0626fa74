package events

import (
	"fmt"
	"os"
	"strings"

	"github.com/oklog/ulid/v2"
)

// NewConsumerID names this process inside the note_event_loggers consumer
// group. Entries a consumer reads but never ACKs stay attributed to its ID
// until another worker reclaims them with XAUTOCLAIM, so every process
// start gets a fresh ID: host, pid and a ULID.
func NewConsumerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "note-event-logger"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), strings.ToLower(ulid.Make().String()))
}
