// Package audit keeps a trail of dashboard mutations.
package audit

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-jastip/internal/common"
	"github.com/noah-isme/backend-jastip/internal/obs"
)

// Entry is one recorded admin action.
type Entry struct {
	ID           string          `json:"id"`
	AdminID      *string         `json:"adminId,omitempty"`
	Action       string          `json:"action"`
	ResourceType string          `json:"resourceType"`
	ResourceID   string          `json:"resourceId,omitempty"`
	Method       string          `json:"method"`
	Path         string          `json:"path"`
	Status       int             `json:"status"`
	IP           string          `json:"ip,omitempty"`
	UserAgent    string          `json:"userAgent,omitempty"`
	RequestID    string          `json:"requestId,omitempty"`
	Metadata     json.RawMessage `json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Query filters List.
type Query struct {
	ResourceType string
	Limit        int
	Offset       int
}

// Store persists audit entries.
type Store interface {
	Insert(ctx context.Context, e Entry) error
	List(ctx context.Context, q Query) ([]Entry, int64, error)
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) Store {
	return &pgStore{pool: pool}
}

type pgStore struct {
	pool *pgxpool.Pool
}

func (s *pgStore) Insert(ctx context.Context, e Entry) error {
	if s == nil || s.pool == nil {
		return errors.New("audit: store not configured")
	}
	var metadata []byte
	if len(e.Metadata) > 0 {
		metadata = e.Metadata
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO audit_logs (admin_id, action, resource_type, resource_id, method, path,
status, ip, user_agent, request_id, metadata)
VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.AdminID, e.Action, e.ResourceType, e.ResourceID, e.Method, e.Path, e.Status, e.IP, e.UserAgent, e.RequestID, metadata)
	return err
}

func (s *pgStore) List(ctx context.Context, q Query) ([]Entry, int64, error) {
	if s == nil || s.pool == nil {
		return nil, 0, errors.New("audit: store not configured")
	}
	const where = ` WHERE ($1::text = '' OR resource_type = $1::text)`
	var total int64
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM audit_logs`+where, q.ResourceType).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.pool.Query(ctx, `SELECT id::text, admin_id::text, action, resource_type, resource_id, method, path,
status, ip, user_agent, request_id, metadata, created_at
FROM audit_logs`+where+` ORDER BY created_at DESC LIMIT $2 OFFSET $3`, q.ResourceType, q.Limit, q.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []Entry{}
	for rows.Next() {
		var (
			e        Entry
			metadata []byte
		)
		if err := rows.Scan(&e.ID, &e.AdminID, &e.Action, &e.ResourceType, &e.ResourceID, &e.Method, &e.Path,
			&e.Status, &e.IP, &e.UserAgent, &e.RequestID, &metadata, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		e.Metadata = metadata
		out = append(out, e)
	}
	return out, total, rows.Err()
}

// Service records audit entries for handled requests.
type Service struct {
	Store        Store
	Enabled      bool
	SamplingRate float64
}

// Record persists an entry describing req and its response status.
func (s Service) Record(ctx context.Context, req *http.Request, status int, resourceID string, metadata []byte) error {
	if !s.Enabled {
		return nil
	}
	if s.SamplingRate > 0 && s.SamplingRate < 1 && rand.Float64() > s.SamplingRate {
		return nil
	}
	if req == nil {
		return errors.New("audit: request is required")
	}
	if s.Store == nil {
		return errors.New("audit: store not configured")
	}

	route := obs.RouteOf(req, strings.TrimSpace(req.URL.Path))
	if status == 0 {
		status = http.StatusOK
	}
	e := Entry{
		Action:       buildAction(req.Method, route),
		ResourceType: buildResource(route),
		ResourceID:   strings.TrimSpace(resourceID),
		Method:       req.Method,
		Path:         req.URL.Path,
		Status:       status,
		IP:           common.ClientIP(req),
		UserAgent:    strings.TrimSpace(req.Header.Get("User-Agent")),
		RequestID:    middleware.GetReqID(req.Context()),
		Metadata:     toMetadata(metadata, req.URL.RawQuery),
	}
	if id, ok := common.AdminID(req.Context()); ok && id != "" {
		e.AdminID = &id
	}
	return s.Store.Insert(ctx, e)
}

func buildAction(method, route string) string {
	if route == "" {
		route = "/"
	}
	return strings.ToUpper(strings.TrimSpace(method)) + " " + route
}

// buildResource turns /api/v1/orders/{orderId}/status into "orders.status".
func buildResource(route string) string {
	var segments []string
	for _, seg := range strings.Split(strings.Trim(route, "/ "), "/") {
		if seg == "" || strings.HasPrefix(seg, "{") {
			continue
		}
		segments = append(segments, seg)
	}
	if len(segments) >= 2 && segments[0] == "api" && segments[1] == "v1" {
		segments = segments[2:]
	}
	if len(segments) == 0 {
		return "unknown"
	}
	return strings.Join(segments, ".")
}

func toMetadata(metadata []byte, query string) json.RawMessage {
	if len(metadata) > 0 {
		return metadata
	}
	if strings.TrimSpace(query) == "" {
		return nil
	}
	data, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil
	}
	return data
}
