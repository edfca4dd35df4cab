package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"ichats/internal/app/attachment"
	"ichats/internal/app/group"
	"ichats/internal/app/message"
	"ichats/internal/app/presence"
	"ichats/internal/app/push"
	"ichats/internal/app/user"
	"ichats/internal/configs"
	"ichats/internal/pkg/auth/jwt"
	"ichats/internal/pkg/resp"
)

// Fixed well-formed UUIDs for test users and groups.
const (
	aliceID    = "11111111-1111-1111-1111-111111111111"
	bobID      = "22222222-2222-2222-2222-222222222222"
	caraID     = "33333333-3333-3333-3333-333333333333"
	daveID     = "44444444-4444-4444-4444-444444444444"
	unknownID  = "99999999-9999-9999-9999-999999999999"
	testSecret = "test-secret"
)

// fakeUserStore is an in-memory user.Store.
type fakeUserStore struct {
	mu       sync.Mutex
	byID     map[string]user.Account
	nextID   int
	failWith error
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[string]user.Account)}
}

func (f *fakeUserStore) seed(acc user.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[acc.ID] = acc
}

func (f *fakeUserStore) Create(_ context.Context, fullName, email, passwordHash, role string) (user.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failWith != nil {
		return user.Profile{}, f.failWith
	}

	for _, acc := range f.byID {
		if acc.Email == email {
			return user.Profile{}, user.ErrEmailTaken
		}
	}

	f.nextID++
	acc := user.Account{
		Profile: user.Profile{
			ID:       newTestUUID(f.nextID),
			FullName: fullName,
			Email:    email,
			Role:     role,
		},
		PasswordHash: passwordHash,
	}
	f.byID[acc.ID] = acc
	return acc.Profile, nil
}

func (f *fakeUserStore) GetAccountByEmail(_ context.Context, email string) (user.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, acc := range f.byID {
		if acc.Email == email {
			return acc, nil
		}
	}
	return user.Account{}, user.ErrNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id string) (user.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, ok := f.byID[id]
	if !ok {
		return user.Profile{}, user.ErrNotFound
	}
	return acc.Profile, nil
}

func (f *fakeUserStore) UpdateProfilePic(_ context.Context, id, url string) (user.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	acc, ok := f.byID[id]
	if !ok {
		return user.Profile{}, user.ErrNotFound
	}
	acc.ProfilePic = url
	f.byID[id] = acc
	return acc.Profile, nil
}

func (f *fakeUserStore) ListByRole(_ context.Context, role string) ([]user.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []user.Profile
	for _, acc := range f.byID {
		if acc.Role == role {
			out = append(out, acc.Profile)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// newTestUUID builds a deterministic well-formed UUID from a counter.
func newTestUUID(n int) string {
	base := []byte("00000000-0000-0000-0000-000000000000")
	digits := []byte{byte('0' + n/10), byte('0' + n%10)}
	copy(base[len(base)-2:], digits)
	return string(base)
}

// fakeMessageStore is an in-memory message.Store with insertion-order timestamps.
type fakeMessageStore struct {
	mu       sync.Mutex
	messages []message.Message
	nextID   int
	clock    time.Time
}

func newFakeMessageStore() *fakeMessageStore {
	return &fakeMessageStore{clock: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (f *fakeMessageStore) Create(_ context.Context, senderID, receiverID, text string, att *attachment.Attachment) (message.Message, error) {
	if text == "" && att == nil {
		return message.Message{}, message.ErrEmpty
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	f.clock = f.clock.Add(time.Second)
	msg := message.Message{
		ID:         newTestUUID(f.nextID),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		Attachment: att,
		CreatedAt:  f.clock,
	}
	f.messages = append(f.messages, msg)
	return msg, nil
}

func (f *fakeMessageStore) ListConversation(_ context.Context, userA, userB string) ([]message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []message.Message
	for _, msg := range f.messages {
		if (msg.SenderID == userA && msg.ReceiverID == userB) ||
			(msg.SenderID == userB && msg.ReceiverID == userA) {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeMessageStore) DeleteInvolving(_ context.Context, userID string) ([]message.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var deleted, kept []message.Message
	for _, msg := range f.messages {
		if msg.SenderID == userID || msg.ReceiverID == userID {
			deleted = append(deleted, msg)
		} else {
			kept = append(kept, msg)
		}
	}
	f.messages = kept
	return deleted, nil
}

// fakeGroupStore is an in-memory group.Store. Creation always enforces
// membership exclusivity; AddMembers re-checks it only when exclusiveOnAdd.
type fakeGroupStore struct {
	mu             sync.Mutex
	groups         map[string]*group.Group
	users          *fakeUserStore
	nextID         int
	exclusiveOnAdd bool
}

func newFakeGroupStore(users *fakeUserStore) *fakeGroupStore {
	return &fakeGroupStore{groups: make(map[string]*group.Group), users: users}
}

func (f *fakeGroupStore) member(id string) group.Member {
	acc, ok := f.users.byID[id]
	if !ok {
		return group.Member{ID: id}
	}
	return group.Member{ID: id, FullName: acc.FullName, Email: acc.Email}
}

func (f *fakeGroupStore) conflicting(memberIDs []string, excludeGroup string) []string {
	taken := make(map[string]bool)
	for gid, g := range f.groups {
		if gid == excludeGroup {
			continue
		}
		for _, m := range g.Members {
			taken[m.ID] = true
		}
	}

	var out []string
	for _, id := range memberIDs {
		if taken[id] {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

func (f *fakeGroupStore) Create(_ context.Context, name string, memberIDs []string) (group.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if conflicts := f.conflicting(memberIDs, ""); len(conflicts) > 0 {
		return group.Group{}, &group.ConflictError{Members: conflicts}
	}

	f.nextID++
	g := &group.Group{
		ID:        newTestUUID(50 + f.nextID),
		Name:      name,
		CreatedAt: time.Now(),
	}
	seen := make(map[string]bool)
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		g.Members = append(g.Members, f.member(id))
	}
	f.groups[g.ID] = g
	return *g, nil
}

func (f *fakeGroupStore) AddMembers(_ context.Context, groupID string, memberIDs []string) (group.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	g, ok := f.groups[groupID]
	if !ok {
		return group.Group{}, group.ErrNotFound
	}

	if f.exclusiveOnAdd {
		if conflicts := f.conflicting(memberIDs, groupID); len(conflicts) > 0 {
			return group.Group{}, &group.ConflictError{Members: conflicts}
		}
	}

	existing := make(map[string]bool)
	for _, m := range g.Members {
		existing[m.ID] = true
	}
	for _, id := range memberIDs {
		if existing[id] {
			continue
		}
		existing[id] = true
		g.Members = append(g.Members, f.member(id))
	}
	return *g, nil
}

func (f *fakeGroupStore) List(_ context.Context) ([]group.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []group.Group
	for _, g := range f.groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeGroupStore) Delete(_ context.Context, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.groups[groupID]; !ok {
		return group.ErrNotFound
	}
	delete(f.groups, groupID)
	return nil
}

func (f *fakeGroupStore) VisibleContacts(_ context.Context, userID string) ([]user.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[string]bool)
	var out []user.Profile
	for _, g := range f.groups {
		inGroup := false
		for _, m := range g.Members {
			if m.ID == userID {
				inGroup = true
				break
			}
		}
		if !inGroup {
			continue
		}
		for _, m := range g.Members {
			if m.ID == userID || seen[m.ID] {
				continue
			}
			seen[m.ID] = true
			if acc, ok := f.users.byID[m.ID]; ok {
				out = append(out, acc.Profile)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// fakeBlobStore is an in-memory attachment.BlobStore. URLs listed in
// failDelete reject deletion.
type fakeBlobStore struct {
	mu         sync.Mutex
	saved      map[string][]byte
	failDelete map[string]bool
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		saved:      make(map[string][]byte),
		failDelete: make(map[string]bool),
	}
}

func (f *fakeBlobStore) Save(_ context.Context, key string, _ string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	url := "https://cdn.test" + attachment.PublicPathPrefix + key
	f.saved[url] = data
	return url, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failDelete[url] {
		return errors.New("storage unavailable")
	}
	delete(f.saved, url)
	return nil
}

// fakeDeliverer records every message handed to the push layer.
type fakeDeliverer struct {
	mu        sync.Mutex
	delivered []message.Message
}

func (f *fakeDeliverer) Deliver(msg message.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delivered = append(f.delivered, msg)
}

var _ push.Deliverer = (*fakeDeliverer)(nil)

// testEnv bundles the fakes behind a ready-to-serve router.
type testEnv struct {
	router   http.Handler
	users    *fakeUserStore
	messages *fakeMessageStore
	groups   *fakeGroupStore
	blobs    *fakeBlobStore
	relay    *fakeDeliverer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	users := newFakeUserStore()
	messages := newFakeMessageStore()
	groups := newFakeGroupStore(users)
	blobs := newFakeBlobStore()
	relay := &fakeDeliverer{}

	deps := &AppDeps{
		Config: &configs.AppConfig{
			Environment: "development",
			JWTSecret:   testSecret,
		},
		Users:    users,
		Messages: messages,
		Groups:   groups,
		Blobs:    blobs,
		Ingestor: attachment.NewIngestor(blobs),
		Presence: presence.NewMemoryRegistry(),
		Relay:    relay,
	}

	return &testEnv{
		router:   Router(deps),
		users:    users,
		messages: messages,
		groups:   groups,
		blobs:    blobs,
		relay:    relay,
	}
}

func (e *testEnv) seedUser(t *testing.T, id, fullName, email, password, role string) {
	t.Helper()
	e.users.seed(user.Account{
		Profile: user.Profile{
			ID:       id,
			FullName: fullName,
			Email:    email,
			Role:     role,
		},
		PasswordHash: hashFor(t, password),
	})
}

var (
	hashCache   = map[string]string{}
	hashCacheMu sync.Mutex
)

func hashFor(t *testing.T, password string) string {
	t.Helper()

	hashCacheMu.Lock()
	defer hashCacheMu.Unlock()
	if h, ok := hashCache[password]; ok {
		return h
	}

	raw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	h := string(raw)
	hashCache[password] = h
	return h
}

func tokenFor(t *testing.T, userID string) string {
	t.Helper()

	token, err := jwt.GenerateToken(&jwt.Payload{UserID: userID, Role: user.RoleUser}, testSecret, time.Hour)
	require.NoError(t, err)
	return token
}

// doJSON issues a request with an optional JSON body and bearer token.
func (e *testEnv) doJSON(t *testing.T, method, path, asUser string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if asUser != "" {
		req.Header.Set("Authorization", "Bearer "+tokenFor(t, asUser))
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// newAuthedGet builds a GET request carrying a raw bearer token.
func newAuthedGet(t *testing.T, path, token string) *http.Request {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func serve(e *testEnv, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// attachmentFor builds a generic file attachment referencing a stored blob.
func attachmentFor(url string) *attachment.Attachment {
	return &attachment.Attachment{
		Kind:     attachment.KindFile,
		URL:      url,
		MimeType: "application/pdf",
		Name:     "doc.pdf",
	}
}

// decodeBody unmarshals the standard JSON envelope from a recorded response.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) resp.JSONResponse {
	t.Helper()

	var body resp.JSONResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// dataAsMap re-decodes the envelope's Data field into a map.
func dataAsMap(t *testing.T, body resp.JSONResponse) map[string]any {
	t.Helper()

	raw, err := json.Marshal(body.Data)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}

// dataAsSlice re-decodes the envelope's Data field into a slice of maps.
func dataAsSlice(t *testing.T, body resp.JSONResponse) []map[string]any {
	t.Helper()

	raw, err := json.Marshal(body.Data)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(raw, &out))
	return out
}
