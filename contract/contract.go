//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

type WorkerName string

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// SessionStore resolves a session id to its serialized session blob.
// The HTTP middleware owns the writes; the realtime handshake only reads.
type SessionStore interface {
	GetSessionByID(ctx context.Context, sessionID string) ([]byte, error)
}

// Notifier is the narrow entry point other subsystems use to push a
// payload to a user's live connections (payment updates, dispute events).
// It performs no persistence of its own.
type Notifier interface {
	NotifyUser(userID string, payload map[string]any)
}
