// Where: cli/internal/handlers/generateurl/handler.go
// What: GenerateUrl handler that returns a viewer link for a recorded bag file.
// Why: Hand out short-lived read access to the bucket without exposing credentials.
package generateurl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Request is the invocation payload.
type Request struct {
	Bucket   string `json:"bucket"`
	Key      string `json:"key,omitempty"`
	RecordID string `json:"record_id,omitempty"`
	SceneID  string `json:"scene_id,omitempty"`
}

// Response mirrors a proxy-style result: Body is a JSON document.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Scene is the subset of a scenario item the handler reads.
type Scene struct {
	BagFile       string
	BagFileBucket string
}

// SceneKey locates one scene item.
type SceneKey struct {
	TableName      string
	Region         string
	PartitionKey   string
	PartitionValue string
	SortKey        string
	SortValue      string
}

// SceneStore looks up scenes. Found is false when the item does not exist.
type SceneStore interface {
	GetScene(ctx context.Context, key SceneKey) (scene Scene, found bool, err error)
}

// Presigner produces a time-limited GET URL for one object.
type Presigner interface {
	PresignGetObject(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

type Handler struct {
	Env       Environment
	Scenes    SceneStore
	Presigner Presigner
	Logger    *zap.Logger
}

type requestError struct {
	status int
	msg    string
}

func (e *requestError) Error() string { return e.msg }

// Handle never returns an error for request problems; they become 4xx/5xx
// responses so the caller always receives a body.
func (h *Handler) Handle(ctx context.Context, req Request) (Response, error) {
	logger := h.logger()
	link, err := h.resolve(ctx, req)
	if err != nil {
		status := http.StatusInternalServerError
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			status = reqErr.status
		}
		logger.Warn("generate url failed", zap.Int("status", status), zap.Error(err))
		return errorResponse(status, err.Error()), nil
	}
	body, err := json.Marshal(map[string]string{"url": link})
	if err != nil {
		return errorResponse(http.StatusInternalServerError, err.Error()), nil
	}
	logger.Info("generated url", zap.String("bucket", req.Bucket), zap.String("key", req.Key))
	return Response{StatusCode: http.StatusOK, Body: string(body)}, nil
}

func (h *Handler) resolve(ctx context.Context, req Request) (string, error) {
	if h.Presigner == nil {
		return "", fmt.Errorf("presigner is not configured")
	}
	bucket := strings.TrimSpace(req.Bucket)
	key := strings.TrimSpace(req.Key)

	if key == "" {
		record := strings.TrimSpace(req.RecordID)
		scene := strings.TrimSpace(req.SceneID)
		if record == "" || scene == "" {
			return "", &requestError{http.StatusBadRequest, "either key or both record_id and scene_id are required"}
		}
		if !h.Env.HasScenarioDatastore() || h.Scenes == nil {
			return "", &requestError{http.StatusBadRequest, "scenario datastore is not configured"}
		}
		item, found, err := h.Scenes.GetScene(ctx, SceneKey{
			TableName:      h.Env.TableName,
			Region:         h.Env.Region,
			PartitionKey:   h.Env.PartitionKey,
			PartitionValue: record,
			SortKey:        h.Env.SortKey,
			SortValue:      scene,
		})
		if err != nil {
			return "", fmt.Errorf("lookup scene: %w", err)
		}
		if !found {
			return "", &requestError{http.StatusNotFound, fmt.Sprintf("scene %s/%s not found", record, scene)}
		}
		if item.BagFile == "" {
			return "", &requestError{http.StatusNotFound, fmt.Sprintf("scene %s/%s has no bag_file", record, scene)}
		}
		key = item.BagFile
		if item.BagFileBucket != "" {
			bucket = item.BagFileBucket
		}
	}
	if bucket == "" {
		return "", &requestError{http.StatusBadRequest, "bucket is required"}
	}

	signed, err := h.Presigner.PresignGetObject(ctx, bucket, key, h.expiry())
	if err != nil {
		return "", fmt.Errorf("presign %s/%s: %w", bucket, key, err)
	}
	return ViewerURL(h.Env.WebvizURL, signed), nil
}

// ViewerURL embeds a bag URL as the viewer's remote-bag-url parameter.
func ViewerURL(base, bagURL string) string {
	return strings.TrimRight(base, "/") + "/?remote-bag-url=" + url.QueryEscape(bagURL)
}

// ParseURL extracts the url from a 200 response, or returns the error body.
func ParseURL(resp Response) (string, error) {
	var body map[string]string
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		return "", fmt.Errorf("decode response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d: %s", resp.StatusCode, body["error"])
	}
	return body["url"], nil
}

func (h *Handler) expiry() time.Duration {
	if h.Env.URLExpiry > 0 {
		return h.Env.URLExpiry
	}
	return DefaultURLExpiry
}

func (h *Handler) logger() *zap.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return zap.NewNop()
}

func errorResponse(status int, msg string) Response {
	body, _ := json.Marshal(map[string]string{"error": msg})
	return Response{StatusCode: status, Body: string(body)}
}
