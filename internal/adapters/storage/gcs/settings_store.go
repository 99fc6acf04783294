package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/ndemidenko/habitbot/internal/domain"
	"github.com/ndemidenko/habitbot/internal/observability"
)

const settingsPrefix = "settings/"

// SettingsStore persists per-user settings as JSON blobs at
// settings/<user id>.json in one bucket.
type SettingsStore struct {
	bucket *storage.BucketHandle
}

func NewSettingsStore(ctx context.Context, bucketName, credentialsFile string) (*SettingsStore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &SettingsStore{bucket: client.Bucket(bucketName)}, nil
}

func objectName(id domain.UserID) string {
	return fmt.Sprintf("%s%d.json", settingsPrefix, int64(id))
}

func (s *SettingsStore) Save(ctx context.Context, id domain.UserID, settings *domain.UserSettings) error {
	w := s.bucket.Object(objectName(id)).NewWriter(ctx)
	w.ContentType = "application/json"

	if err := json.NewEncoder(w).Encode(settings); err != nil {
		w.Close()
		return fmt.Errorf("encode settings for user %d: %w", int64(id), err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("write settings for user %d: %w", int64(id), err)
	}

	observability.LoggerFromContext(ctx).Info("settings saved", "user_id", int64(id))
	return nil
}

func (s *SettingsStore) Load(ctx context.Context, id domain.UserID) (*domain.UserSettings, error) {
	r, err := s.bucket.Object(objectName(id)).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, domain.ErrSettingsNotFound
		}
		return nil, fmt.Errorf("open settings for user %d: %w", int64(id), err)
	}
	defer r.Close()

	return decodeSettings(r, int64(id))
}

func (s *SettingsStore) LoadAll(ctx context.Context) (map[domain.UserID]*domain.UserSettings, error) {
	out := make(map[domain.UserID]*domain.UserSettings)

	it := s.bucket.Objects(ctx, &storage.Query{Prefix: settingsPrefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list settings objects: %w", err)
		}

		id, ok := userIDFromObject(attrs.Name)
		if !ok {
			continue
		}

		r, err := s.bucket.Object(attrs.Name).NewReader(ctx)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", attrs.Name, err)
		}
		settings, err := decodeSettings(r, int64(id))
		r.Close()
		if err != nil {
			// One corrupt blob must not block startup.
			observability.Logger().Error("skipping unreadable settings object",
				"object", attrs.Name, "error", err)
			continue
		}
		out[id] = settings
	}
	return out, nil
}

func decodeSettings(r io.Reader, userID int64) (*domain.UserSettings, error) {
	var settings domain.UserSettings
	if err := json.NewDecoder(r).Decode(&settings); err != nil {
		return nil, fmt.Errorf("decode settings for user %d: %w", userID, err)
	}
	return &settings, nil
}

func userIDFromObject(name string) (domain.UserID, bool) {
	base := strings.TrimPrefix(name, settingsPrefix)
	base = strings.TrimSuffix(base, ".json")
	id, err := strconv.ParseInt(base, 10, 64)
	if err != nil {
		return 0, false
	}
	return domain.UserID(id), true
}
