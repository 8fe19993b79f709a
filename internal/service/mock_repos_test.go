package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/ardabasoglu/verida-sub002/internal/model"
	"github.com/ardabasoglu/verida-sub002/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id 或 "email:"+email
	prefs map[string]*model.NotificationPreference
	seq   int
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{
		users: make(map[string]*model.User),
		prefs: make(map[string]*model.NotificationPreference),
	}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		m.seq++
		user.UserID = fmt.Sprintf("user-%d", m.seq)
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.UserID] = user
	m.users["email:"+user.Email] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	if u, ok := m.users["email:"+email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	m.users["email:"+user.Email] = user
	return nil
}

func (m *mockUserRepo) Count(_ context.Context) (int64, error) {
	seen := make(map[string]bool)
	for _, u := range m.users {
		seen[u.UserID] = true
	}
	return int64(len(seen)), nil
}

func (m *mockUserRepo) ListWithFilters(_ context.Context, filters *repository.UserListFilters, offset, limit int) ([]model.User, int64, error) {
	seen := make(map[string]bool)
	var all []model.User
	for _, u := range m.users {
		if seen[u.UserID] {
			continue
		}
		seen[u.UserID] = true
		if filters != nil {
			if filters.Role != "" && u.Role != filters.Role {
				continue
			}
			if filters.Keyword != "" &&
				!strings.Contains(u.Name, filters.Keyword) &&
				!strings.Contains(u.Email, filters.Keyword) {
				continue
			}
		}
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].UserID < all[j].UserID })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) ListFanoutTargets(_ context.Context, excludeUserID string) ([]repository.FanoutTarget, error) {
	seen := make(map[string]bool)
	var targets []repository.FanoutTarget
	for _, u := range m.users {
		if seen[u.UserID] || u.UserID == excludeUserID || !u.IsActive {
			continue
		}
		seen[u.UserID] = true
		inApp, emailOn := true, true
		if p, ok := m.prefs[u.UserID]; ok {
			inApp, emailOn = p.InAppNotifications, p.EmailNotifications
		}
		targets = append(targets, repository.FanoutTarget{
			UserID:  u.UserID,
			Name:    u.Name,
			Email:   u.Email,
			InApp:   inApp,
			EmailOn: emailOn,
		})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].UserID < targets[j].UserID })
	return targets, nil
}

// ── Mock PageRepository ──

type mockPageRepo struct {
	pages map[string]*model.Page
	users *mockUserRepo
	seq   int
}

func newMockPageRepo(users *mockUserRepo) *mockPageRepo {
	return &mockPageRepo{pages: make(map[string]*model.Page), users: users}
}

func (m *mockPageRepo) Create(_ context.Context, page *model.Page) error {
	if page.PageID == "" {
		m.seq++
		page.PageID = fmt.Sprintf("page-%d", m.seq)
	}
	page.CreatedAt = time.Now()
	page.UpdatedAt = page.CreatedAt
	m.pages[page.PageID] = page
	return nil
}

func (m *mockPageRepo) GetByID(_ context.Context, id string) (*model.Page, error) {
	p, ok := m.pages[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if p.Author == nil && m.users != nil {
		if u, ok := m.users.users[p.AuthorID]; ok {
			p.Author = u
		}
	}
	return p, nil
}

func (m *mockPageRepo) Update(_ context.Context, page *model.Page) error {
	page.UpdatedAt = time.Now()
	m.pages[page.PageID] = page
	return nil
}

func (m *mockPageRepo) Delete(_ context.Context, id string) error {
	delete(m.pages, id)
	return nil
}

func (m *mockPageRepo) List(_ context.Context, filters *repository.PageListFilters, offset, limit int, _, _ string) ([]model.Page, int64, error) {
	var all []model.Page
	for _, p := range m.pages {
		if filters != nil {
			if filters.PublishedOnly && !p.Published {
				continue
			}
			if filters.Query != "" &&
				!strings.Contains(p.Title, filters.Query) &&
				!strings.Contains(p.Content, filters.Query) {
				continue
			}
			if filters.PageType != "" && p.PageType != filters.PageType {
				continue
			}
			if filters.Tag != "" && !containsTag(p.Tags, filters.Tag) {
				continue
			}
			if filters.AuthorID != "" && p.AuthorID != filters.AuthorID {
				continue
			}
		}
		all = append(all, *p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].PageID < all[j].PageID })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockPageRepo) TagCounts(_ context.Context, limit int) ([]repository.TagCount, error) {
	counts := make(map[string]int64)
	for _, p := range m.pages {
		if !p.Published {
			continue
		}
		for _, tag := range p.Tags {
			counts[tag]++
		}
	}

	var result []repository.TagCount
	for tag, count := range counts {
		result = append(result, repository.TagCount{Tag: tag, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Tag < result[j].Tag
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func containsTag(tags model.StringArray, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

// ── Mock CommentRepository ──

type mockCommentRepo struct {
	comments map[string]*model.Comment
	pages    *mockPageRepo
	users    *mockUserRepo
	seq      int
}

func newMockCommentRepo(pages *mockPageRepo, users *mockUserRepo) *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[string]*model.Comment), pages: pages, users: users}
}

func (m *mockCommentRepo) Create(_ context.Context, comment *model.Comment) error {
	if comment.CommentID == "" {
		m.seq++
		comment.CommentID = fmt.Sprintf("comment-%d", m.seq)
	}
	comment.CreatedAt = time.Now()
	comment.UpdatedAt = comment.CreatedAt
	m.comments[comment.CommentID] = comment
	return nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id string) (*model.Comment, error) {
	c, ok := m.comments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	// 模拟 Preload: 关联页面与用户
	if c.Page == nil && m.pages != nil {
		if p, ok := m.pages.pages[c.PageID]; ok {
			c.Page = p
		}
	}
	if c.User == nil && m.users != nil {
		if u, ok := m.users.users[c.UserID]; ok {
			c.User = u
		}
	}
	return c, nil
}

func (m *mockCommentRepo) Update(_ context.Context, comment *model.Comment) error {
	comment.UpdatedAt = time.Now()
	m.comments[comment.CommentID] = comment
	return nil
}

func (m *mockCommentRepo) Delete(_ context.Context, id string) error {
	delete(m.comments, id)
	return nil
}

func (m *mockCommentRepo) ListByPage(_ context.Context, pageID string, offset, limit int) ([]model.Comment, int64, error) {
	var all []model.Comment
	for _, c := range m.comments {
		if c.PageID == pageID {
			all = append(all, *c)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CommentID < all[j].CommentID })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

// ── Mock FileRepository ──

type mockFileRepo struct {
	files map[string]*model.File
	seq   int
}

func newMockFileRepo() *mockFileRepo {
	return &mockFileRepo{files: make(map[string]*model.File)}
}

func (m *mockFileRepo) Create(_ context.Context, file *model.File) error {
	if file.FileID == "" {
		m.seq++
		file.FileID = fmt.Sprintf("file-%d", m.seq)
	}
	file.CreatedAt = time.Now()
	m.files[file.FileID] = file
	return nil
}

func (m *mockFileRepo) GetByID(_ context.Context, id string) (*model.File, error) {
	if f, ok := m.files[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFileRepo) Delete(_ context.Context, id string) error {
	delete(m.files, id)
	return nil
}

func (m *mockFileRepo) ListByPage(_ context.Context, pageID string) ([]model.File, error) {
	var result []model.File
	for _, f := range m.files {
		if f.PageID != nil && *f.PageID == pageID {
			result = append(result, *f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FileID < result[j].FileID })
	return result, nil
}

// ── Mock NotificationRepository ──

type mockNotificationRepo struct {
	notifications map[string]*model.Notification
	prefs         map[string]*model.NotificationPreference
	seq           int
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{
		notifications: make(map[string]*model.Notification),
		prefs:         make(map[string]*model.NotificationPreference),
	}
}

func (m *mockNotificationRepo) Create(_ context.Context, n *model.Notification) error {
	if n.NotificationID == "" {
		m.seq++
		n.NotificationID = fmt.Sprintf("notif-%d", m.seq)
	}
	n.CreatedAt = time.Now()
	m.notifications[n.NotificationID] = n
	return nil
}

func (m *mockNotificationRepo) CreateBatch(ctx context.Context, ns []model.Notification) error {
	for i := range ns {
		if err := m.Create(ctx, &ns[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *mockNotificationRepo) ListByUser(_ context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var all []model.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		all = append(all, *n)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].NotificationID > all[j].NotificationID })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockNotificationRepo) MarkRead(_ context.Context, userID, notificationID string) (int64, error) {
	n, ok := m.notifications[notificationID]
	if !ok || n.UserID != userID {
		return 0, nil
	}
	n.IsRead = true
	return 1, nil
}

func (m *mockNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var affected int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			affected++
		}
	}
	return affected, nil
}

func (m *mockNotificationRepo) CountUnread(_ context.Context, userID string) (int64, error) {
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepo) GetPreference(_ context.Context, userID string) (*model.NotificationPreference, error) {
	if p, ok := m.prefs[userID]; ok {
		return p, nil
	}
	p := &model.NotificationPreference{
		UserID:             userID,
		InAppNotifications: true,
		EmailNotifications: true,
	}
	m.prefs[userID] = p
	return p, nil
}

func (m *mockNotificationRepo) SavePreference(_ context.Context, pref *model.NotificationPreference) error {
	m.prefs[pref.UserID] = pref
	return nil
}

// ── Mock ActivityLogRepository ──

type mockActivityLogRepo struct {
	entries []model.ActivityLog
	seq     int64
}

func newMockActivityLogRepo() *mockActivityLogRepo {
	return &mockActivityLogRepo{}
}

func (m *mockActivityLogRepo) Insert(_ context.Context, entry *model.ActivityLog) error {
	m.seq++
	entry.LogID = m.seq
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *mockActivityLogRepo) matches(e *model.ActivityLog, filters *repository.ActivityLogFilters) bool {
	if filters == nil {
		return true
	}
	if filters.UserID != "" && e.UserID != filters.UserID {
		return false
	}
	if filters.Action != "" && e.Action != filters.Action {
		return false
	}
	if filters.ResourceType != "" && (e.ResourceType == nil || *e.ResourceType != filters.ResourceType) {
		return false
	}
	if filters.ResourceID != "" && (e.ResourceID == nil || *e.ResourceID != filters.ResourceID) {
		return false
	}
	if filters.StartDate != nil && e.CreatedAt.Before(*filters.StartDate) {
		return false
	}
	if filters.EndDate != nil && e.CreatedAt.After(*filters.EndDate) {
		return false
	}
	return true
}

func (m *mockActivityLogRepo) List(_ context.Context, filters *repository.ActivityLogFilters, offset, limit int) ([]model.ActivityLog, int64, error) {
	var all []model.ActivityLog
	for i := range m.entries {
		if m.matches(&m.entries[i], filters) {
			all = append(all, m.entries[i])
		}
	}
	// 时间倒序（LogID 随插入递增）
	sort.Slice(all, func(i, j int) bool { return all[i].LogID > all[j].LogID })

	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockActivityLogRepo) CountByAction(_ context.Context, filters *repository.ActivityLogFilters) ([]repository.ActionCount, error) {
	counts := make(map[string]int64)
	for i := range m.entries {
		if m.matches(&m.entries[i], filters) {
			counts[m.entries[i].Action]++
		}
	}
	var result []repository.ActionCount
	for action, count := range counts {
		result = append(result, repository.ActionCount{Action: action, Count: count})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Count > result[j].Count })
	return result, nil
}

func (m *mockActivityLogRepo) CountByUserSince(_ context.Context, userID string, since time.Time) (int64, error) {
	var count int64
	for i := range m.entries {
		if m.entries[i].UserID == userID && !m.entries[i].CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// ── Mock TokenRepository ──

type mockTokenRepo struct {
	tokens map[string]*model.VerificationToken
	seq    int
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[string]*model.VerificationToken)}
}

func (m *mockTokenRepo) Create(_ context.Context, token *model.VerificationToken) error {
	if token.TokenID == "" {
		m.seq++
		token.TokenID = fmt.Sprintf("token-%d", m.seq)
	}
	token.CreatedAt = time.Now()
	m.tokens[token.Token] = token
	return nil
}

func (m *mockTokenRepo) Consume(_ context.Context, token string) (*model.VerificationToken, error) {
	vt, ok := m.tokens[token]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	delete(m.tokens, token)
	return vt, nil
}

func (m *mockTokenRepo) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var deleted int64
	for key, vt := range m.tokens {
		if vt.ExpiresAt.Before(before) {
			delete(m.tokens, key)
			deleted++
		}
	}
	return deleted, nil
}

// ── Mock QueryCache ──

type mockQueryCache struct {
	store map[string][]byte
	hits  int
	sets  int
}

func newMockQueryCache() *mockQueryCache {
	return &mockQueryCache{store: make(map[string][]byte)}
}

func (m *mockQueryCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	raw, ok := m.store[key]
	if !ok {
		return false, nil
	}
	m.hits++
	return true, json.Unmarshal(raw, dest)
}

func (m *mockQueryCache) SetJSON(_ context.Context, key string, v interface{}, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	m.sets++
	m.store[key] = raw
	return nil
}

func (m *mockQueryCache) InvalidatePrefix(_ context.Context, prefix string) error {
	for key := range m.store {
		if strings.HasPrefix(key, prefix) {
			delete(m.store, key)
		}
	}
	return nil
}

// ── Mock TokenBlacklist ──

type mockBlacklist struct {
	jtis map[string]bool
}

func newMockBlacklist() *mockBlacklist {
	return &mockBlacklist{jtis: make(map[string]bool)}
}

func (m *mockBlacklist) BlacklistToken(_ context.Context, jti string, _ time.Duration) error {
	m.jtis[jti] = true
	return nil
}

func (m *mockBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	return m.jtis[jti], nil
}

// ── Mock MailSender ──

type sentMail struct {
	To      string
	Subject string
}

type mockMailSender struct {
	enabled bool
	sent    []sentMail
}

func (m *mockMailSender) Enabled() bool { return m.enabled }

func (m *mockMailSender) Send(to, subject, _ string) error {
	m.sent = append(m.sent, sentMail{To: to, Subject: subject})
	return nil
}

// ── 测试辅助 ──

// testRepos 组装全套 mock Repository
func newTestRepository() (*repository.Repository, *mockUserRepo, *mockPageRepo, *mockNotificationRepo, *mockActivityLogRepo, *mockTokenRepo) {
	users := newMockUserRepo()
	pages := newMockPageRepo(users)
	notifications := newMockNotificationRepo()
	// 扇出目标的偏好与通知偏好共享同一存储
	users.prefs = notifications.prefs
	logs := newMockActivityLogRepo()
	tokens := newMockTokenRepo()

	repo := &repository.Repository{
		User:         users,
		Page:         pages,
		Comment:      newMockCommentRepo(pages, users),
		File:         newMockFileRepo(),
		Notification: notifications,
		ActivityLog:  logs,
		Token:        tokens,
	}
	return repo, users, pages, notifications, logs, tokens
}
