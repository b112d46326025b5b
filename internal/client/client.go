package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"whiteboard-studio/internal/boardsync"
	"whiteboard-studio/internal/canvas"
	"whiteboard-studio/internal/models"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// requestTimeout bounds a single request; AI generation is the slowest call.
const requestTimeout = 2 * time.Minute

// ErrNotFound matches any APIError with a 404 status.
var ErrNotFound = errors.New("not found")

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Client talks to the whiteboard service's /api/v1 routes. It implements
// boardsync.Store.
type Client struct {
	base *url.URL
	http *http.Client
}

var _ boardsync.Store = (*Client)(nil)

// New builds a client for baseURL (e.g. http://localhost:3000/api/v1). A
// non-empty token is sent as a bearer token on every request.
func New(ctx context.Context, baseURL, token string) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	httpClient := &http.Client{Timeout: requestTimeout}
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: token,
			TokenType:   "Bearer",
		}))
		httpClient.Timeout = requestTimeout
	}
	return &Client{base: base, http: httpClient}, nil
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", req.URL.Path, err)
	}
	return nil
}

type whiteboardResp struct {
	Whiteboard models.Whiteboard `json:"whiteboard"`
}

type elementResp struct {
	Element models.Element `json:"element"`
}

type connectionResp struct {
	Connection models.Connection `json:"connection"`
}

// LoadBoard fetches the project's whiteboard, creating it on first access.
// Connections whose stored points cannot be decoded are skipped.
func (c *Client) LoadBoard(ctx context.Context, projectID string) (boardsync.Snapshot, error) {
	var wr whiteboardResp
	path := "/whiteboards?project_id=" + url.QueryEscape(projectID)
	if err := c.do(ctx, http.MethodGet, path, nil, &wr); err != nil {
		return boardsync.Snapshot{}, err
	}
	wb := wr.Whiteboard
	snap := boardsync.Snapshot{
		BoardID:   wb.UUID.String(),
		ProjectID: wb.ProjectID,
		Title:     wb.Title,
		Viewport:  canvas.Viewport{PanX: wb.ViewX, PanY: wb.ViewY, Zoom: wb.ViewScale},
	}
	if snap.Viewport.Zoom <= 0 {
		snap.Viewport.Zoom = 1
	}
	for _, e := range wb.Elements {
		snap.Elements = append(snap.Elements, e.Canvas())
	}
	for _, row := range wb.Connections {
		conn, err := row.Canvas()
		if err != nil {
			log.Printf("client: skipping connection: %v", err)
			continue
		}
		snap.Connections = append(snap.Connections, conn)
	}
	return snap, nil
}

func (c *Client) UpdateBoard(ctx context.Context, boardID string, v canvas.Viewport) error {
	body := map[string]float64{"view_x": v.PanX, "view_y": v.PanY, "view_scale": v.Zoom}
	return c.do(ctx, http.MethodPatch, "/whiteboards/"+boardID, body, nil)
}

// SetThumbnail records the url of the board's rendered preview.
func (c *Client) SetThumbnail(ctx context.Context, boardID, imageURL string) error {
	return c.do(ctx, http.MethodPatch, "/whiteboards/"+boardID, map[string]string{"thumbnail": imageURL}, nil)
}

func (c *Client) CreateElement(ctx context.Context, boardID string, e canvas.Element) (canvas.Element, error) {
	bid, err := uuid.Parse(boardID)
	if err != nil {
		return canvas.Element{}, fmt.Errorf("board id %q: %w", boardID, err)
	}
	row, err := models.ElementFromCanvas(bid, e)
	if err != nil {
		return canvas.Element{}, err
	}
	var er elementResp
	if err := c.do(ctx, http.MethodPost, "/whiteboards/"+boardID+"/elements", row, &er); err != nil {
		return canvas.Element{}, err
	}
	return er.Element.Canvas(), nil
}

func (c *Client) UpdateElement(ctx context.Context, id string, p canvas.Patch) (canvas.Element, error) {
	var er elementResp
	if err := c.do(ctx, http.MethodPatch, "/whiteboard-elements/"+id, models.PatchFromCanvas(p), &er); err != nil {
		return canvas.Element{}, err
	}
	return er.Element.Canvas(), nil
}

func (c *Client) DeleteElement(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/whiteboard-elements/"+id, nil, nil)
}

func (c *Client) CreateConnection(ctx context.Context, boardID string, conn canvas.Connection) (canvas.Connection, error) {
	bid, err := uuid.Parse(boardID)
	if err != nil {
		return canvas.Connection{}, fmt.Errorf("board id %q: %w", boardID, err)
	}
	row, err := models.ConnectionFromCanvas(bid, conn)
	if err != nil {
		return canvas.Connection{}, err
	}
	var cr connectionResp
	if err := c.do(ctx, http.MethodPost, "/whiteboards/"+boardID+"/connections", row, &cr); err != nil {
		return canvas.Connection{}, err
	}
	return cr.Connection.Canvas()
}

func (c *Client) UpdateConnection(ctx context.Context, id string, p canvas.ConnectionPatch) (canvas.Connection, error) {
	var cr connectionResp
	if err := c.do(ctx, http.MethodPatch, "/whiteboard-connections/"+id, models.ConnectionPatchFromCanvas(p), &cr); err != nil {
		return canvas.Connection{}, err
	}
	return cr.Connection.Canvas()
}

func (c *Client) DeleteConnection(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/whiteboard-connections/"+id, nil, nil)
}

// UploadImage posts data as a multipart "image" field. Relative urls from a
// disk-backed server are resolved against the api host.
func (c *Client) UploadImage(ctx context.Context, boardID, filename string, data []byte) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		return "", err
	}
	if _, err := part.Write(data); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/whiteboards/"+boardID+"/images"), &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	ref, err := url.Parse(out.URL)
	if err != nil {
		return "", fmt.Errorf("image url %q: %w", out.URL, err)
	}
	return c.base.ResolveReference(ref).String(), nil
}

func (c *Client) Brainstorm(ctx context.Context, boardID, topic string) (models.Brainstorm, error) {
	var out models.Brainstorm
	err := c.do(ctx, http.MethodPost, "/whiteboards/"+boardID+"/ai/brainstorm", models.TopicRequest{Topic: topic}, &out)
	return out, err
}

func (c *Client) Diagram(ctx context.Context, boardID, topic string) (models.Diagram, error) {
	var out models.Diagram
	err := c.do(ctx, http.MethodPost, "/whiteboards/"+boardID+"/ai/diagram", models.TopicRequest{Topic: topic}, &out)
	return out, err
}
