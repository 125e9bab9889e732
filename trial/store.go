package trial

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SnapshotCollection is the Mongo collection holding saved sessions
const SnapshotCollection = "trial_snapshots"

// SnapshotStore persists one saved snapshot per session
type SnapshotStore interface {
	Save(ctx context.Context, sessionID string, snap Snapshot) error
	Load(ctx context.Context, sessionID string) (Snapshot, error)
}

// MemorySnapshotStore keeps snapshots in process memory
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	snaps map[string]Snapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snaps: make(map[string]Snapshot)}
}

func (m *MemorySnapshotStore) Save(_ context.Context, sessionID string, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[sessionID] = cloneSnapshot(snap)
	return nil
}

func (m *MemorySnapshotStore) Load(_ context.Context, sessionID string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[sessionID]
	if !ok {
		return Snapshot{}, ErrSnapshotNotFound
	}
	return cloneSnapshot(snap), nil
}

func cloneSnapshot(in Snapshot) Snapshot {
	out := in
	out.Steps = copySteps(in.Steps)
	out.Transcript = copyTranscript(in.Transcript)
	out.Presented = copyPresented(in.Presented)
	out.Objection = copyObjection(in.Objection)
	return out
}

type snapshotDocument struct {
	SessionID string    `bson:"_id"`
	Snapshot  Snapshot  `bson:"snapshot"`
	SavedAt   time.Time `bson:"savedAt"`
}

// MongoSnapshotStore upserts snapshots keyed by session id
type MongoSnapshotStore struct {
	coll *mongo.Collection
}

func NewMongoSnapshotStore(coll *mongo.Collection) *MongoSnapshotStore {
	return &MongoSnapshotStore{coll: coll}
}

func (m *MongoSnapshotStore) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	doc := snapshotDocument{SessionID: sessionID, Snapshot: snap, SavedAt: time.Now()}
	_, err := m.coll.ReplaceOne(ctx, bson.M{"_id": sessionID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save snapshot for session %s: %w", sessionID, err)
	}
	return nil
}

func (m *MongoSnapshotStore) Load(ctx context.Context, sessionID string) (Snapshot, error) {
	var doc snapshotDocument
	err := m.coll.FindOne(ctx, bson.M{"_id": sessionID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Snapshot{}, ErrSnapshotNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load snapshot for session %s: %w", sessionID, err)
	}
	return doc.Snapshot, nil
}
