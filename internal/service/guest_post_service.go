package service

import (
	"context"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/Laisky/zap"

	"github.com/lumina/internal/content"
	"github.com/lumina/internal/db"
	"github.com/lumina/internal/log"
	"github.com/lumina/internal/store"
)

// Action 是审核操作。
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionPublish Action = "publish"
)

// ContentFormatMarkdown 表示投稿正文为 Markdown。
const ContentFormatMarkdown = "markdown"

type transitionRule struct {
	from []db.GuestPostStatus
	to   db.GuestPostStatus
}

// transitions 是投稿审核状态机。pending 只作为初始状态出现；
// rejected 与 published 是终态。
var transitions = map[Action]transitionRule{
	ActionApprove: {from: []db.GuestPostStatus{db.GuestPending}, to: db.GuestApproved},
	ActionReject:  {from: []db.GuestPostStatus{db.GuestPending}, to: db.GuestRejected},
	ActionPublish: {from: []db.GuestPostStatus{db.GuestApproved}, to: db.GuestPublished},
}

// actionFor 返回到达目标状态所需的操作。
func actionFor(status db.GuestPostStatus) (Action, bool) {
	for action, rule := range transitions {
		if rule.to == status {
			return action, true
		}
	}
	return "", false
}

// CanTransition 判断 action 对当前状态是否合法。
func CanTransition(current db.GuestPostStatus, action Action) bool {
	rule, ok := transitions[action]
	if !ok {
		return false
	}
	for _, from := range rule.from {
		if from == current {
			return true
		}
	}
	return false
}

// GuestSubmission 是公开投稿表单。
type GuestSubmission struct {
	Name           string
	Email          string
	Website        string
	ArticleTitle   string
	ArticleContent string
	ContentFormat  string
	Category       string
	Image          string
	Backlink       string
	AnchorText     string
}

// GuestPostUpdate 是后台对投稿的部分更新，nil 字段保持不变。
type GuestPostUpdate struct {
	Name           *string
	Email          *string
	Website        *string
	ArticleTitle   *string
	Slug           *string
	ArticleContent *string
	Category       *string
	Image          *string
	Backlink       *string
	AnchorText     *string
	Status         *db.GuestPostStatus
}

// GuestPostQuery 是后台投稿列表的过滤条件。
type GuestPostQuery struct {
	Status db.GuestPostStatus
	Search string
}

// GuestPostService 处理投稿提交与审核。
type GuestPostService struct {
	store store.Store
	now   func() time.Time
}

// NewGuestPostService 构造 GuestPostService。
func NewGuestPostService(st store.Store) *GuestPostService {
	return &GuestPostService{store: st, now: time.Now}
}

// Submit 校验并保存一篇新投稿，状态总是 pending。
func (s *GuestPostService) Submit(ctx context.Context, in GuestSubmission) (*db.GuestPost, error) {
	post, err := s.Prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// Prepare 校验投稿并解析分类，返回尚未保存的 pending 记录。
func (s *GuestPostService) Prepare(ctx context.Context, in GuestSubmission) (*db.GuestPost, error) {
	name := trim(in.Name)
	if name == "" {
		return nil, invalidField("name", "name is required")
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	title := trim(in.ArticleTitle)
	if title == "" {
		return nil, invalidField("articleTitle", "article title is required")
	}

	body, err := renderGuestContent(in.ArticleContent, in.ContentFormat)
	if err != nil {
		return nil, err
	}

	website, err := optionalURL("website", in.Website)
	if err != nil {
		return nil, err
	}
	backlink, err := optionalURL("backlink", in.Backlink)
	if err != nil {
		return nil, err
	}

	post := &db.GuestPost{
		Name:           name,
		Email:          email,
		Website:        website,
		ArticleTitle:   title,
		ArticleContent: body,
		Category:       trim(in.Category),
		Image:          trim(in.Image),
		Backlink:       backlink,
		AnchorText:     trim(in.AnchorText),
		Status:         db.GuestPending,
		AuthorType:     db.AuthorTypeGuest,
	}
	if post.CategoryID, err = s.resolveCategoryID(ctx, post.Category); err != nil {
		return nil, err
	}
	return post, nil
}

// Save 为 Prepare 返回的投稿生成 slug 并落库。
func (s *GuestPostService) Save(ctx context.Context, post *db.GuestPost) error {
	post.Status = db.GuestPending
	post.Image = trim(post.Image)

	// slug 检查与插入之间可能被并发投稿抢占，唯一索引冲突时重新生成
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if post.Slug, err = uniqueSlug(ctx, s.store, s.now(), post.ArticleTitle, ""); err != nil {
			return err
		}
		err = s.store.GuestPosts().Create(ctx, post)
		if err == nil {
			log.Logger.Info("guest post submitted",
				zap.String("id", post.ID),
				zap.String("slug", post.Slug),
				zap.String("category", post.Category))
			return nil
		}
		if !errors.Is(err, store.ErrConflict) {
			return errors.Wrap(err, "create guest post")
		}
		post.ID = ""
	}
	return errors.Wrapf(ErrSlugTaken, "slug %q", post.Slug)
}

// List 返回后台投稿列表，按创建时间倒序。
func (s *GuestPostService) List(ctx context.Context, query GuestPostQuery) ([]db.GuestPost, error) {
	filter := store.GuestPostFilter{Search: query.Search}
	if query.Status != "" {
		if !query.Status.Valid() {
			return nil, errors.Wrapf(ErrInvalidStatus, "status %q", query.Status)
		}
		filter.Statuses = []db.GuestPostStatus{query.Status}
	}

	posts, err := s.store.GuestPosts().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// Get 返回单篇投稿。
func (s *GuestPostService) Get(ctx context.Context, id string) (*db.GuestPost, error) {
	post, err := s.store.GuestPosts().Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrGuestPostNotFound
		}
		return nil, err
	}
	return post, nil
}

// Transition 执行审核操作。状态检查与写入在存储层一次完成，
// 当前状态不允许该操作时返回 ErrInvalidTransition 且记录保持不变。
func (s *GuestPostService) Transition(ctx context.Context, id string, action Action) (*db.GuestPost, error) {
	rule, ok := transitions[action]
	if !ok {
		return nil, errors.Wrapf(ErrInvalidTransition, "unknown action %q", action)
	}

	post, err := s.store.GuestPosts().UpdateStatus(ctx, id, rule.from, rule.to)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrGuestPostNotFound
	case errors.Is(err, store.ErrConflict):
		current := db.GuestPostStatus("")
		if post != nil {
			current = post.Status
		}
		return nil, errors.Wrapf(ErrInvalidTransition, "cannot %s a %s post", action, current)
	default:
		return nil, errors.Wrap(err, "update guest post status")
	}

	log.Logger.Info("guest post status changed",
		zap.String("id", post.ID),
		zap.String("action", string(action)),
		zap.String("status", string(post.Status)))
	return post, nil
}

// Update 更新投稿字段；Status 变化经由审核状态机。
func (s *GuestPostService) Update(ctx context.Context, id string, in GuestPostUpdate) (*db.GuestPost, error) {
	post, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var action Action
	if in.Status != nil && *in.Status != post.Status {
		if !in.Status.Valid() {
			return nil, errors.Wrapf(ErrInvalidStatus, "status %q", *in.Status)
		}
		var ok bool
		if action, ok = actionFor(*in.Status); !ok {
			return nil, errors.Wrapf(ErrInvalidTransition, "cannot move a %s post to %s", post.Status, *in.Status)
		}
		if !CanTransition(post.Status, action) {
			return nil, errors.Wrapf(ErrInvalidTransition, "cannot %s a %s post", action, post.Status)
		}
	}

	changed, err := s.applyUpdate(ctx, post, in)
	if err != nil {
		return nil, err
	}

	if action != "" {
		moved, err := s.Transition(ctx, id, action)
		if err != nil {
			return nil, err
		}
		post.Status = moved.Status
		post.UpdatedAt = moved.UpdatedAt
	}

	if changed {
		if err := s.store.GuestPosts().Update(ctx, post); err != nil {
			switch {
			case errors.Is(err, store.ErrNotFound):
				return nil, ErrGuestPostNotFound
			case errors.Is(err, store.ErrConflict):
				return nil, errors.Wrapf(ErrSlugTaken, "slug %q", post.Slug)
			}
			return nil, errors.Wrap(err, "update guest post")
		}
	}

	return post, nil
}

// applyUpdate 将输入写入 post 并校验，返回是否有字段变化。
func (s *GuestPostService) applyUpdate(ctx context.Context, post *db.GuestPost, in GuestPostUpdate) (bool, error) {
	changed := false
	set := func(dst *string, src *string) {
		if src == nil {
			return
		}
		if value := trim(*src); value != *dst {
			*dst = value
			changed = true
		}
	}

	if in.Name != nil && trim(*in.Name) == "" {
		return false, invalidField("name", "name is required")
	}
	set(&post.Name, in.Name)

	if in.Email != nil {
		email, err := normalizeEmail(*in.Email)
		if err != nil {
			return false, err
		}
		set(&post.Email, &email)
	}

	if in.ArticleTitle != nil && trim(*in.ArticleTitle) == "" {
		return false, invalidField("articleTitle", "article title is required")
	}
	set(&post.ArticleTitle, in.ArticleTitle)

	if in.ArticleContent != nil {
		body, err := renderGuestContent(*in.ArticleContent, "")
		if err != nil {
			return false, err
		}
		set(&post.ArticleContent, &body)
	}

	for _, field := range []struct {
		name string
		dst  *string
		src  *string
	}{
		{name: "website", dst: &post.Website, src: in.Website},
		{name: "backlink", dst: &post.Backlink, src: in.Backlink},
	} {
		if field.src == nil {
			continue
		}
		value, err := optionalURL(field.name, *field.src)
		if err != nil {
			return false, err
		}
		set(field.dst, &value)
	}

	set(&post.Image, in.Image)
	set(&post.AnchorText, in.AnchorText)

	if in.Category != nil && trim(*in.Category) != post.Category {
		set(&post.Category, in.Category)
		categoryID, err := s.resolveCategoryID(ctx, post.Category)
		if err != nil {
			return false, err
		}
		post.CategoryID = categoryID
	}

	if in.Slug != nil && content.Slugify(*in.Slug) != post.Slug {
		slug, err := explicitSlug(ctx, s.store, *in.Slug, post.ID)
		if err != nil {
			return false, err
		}
		post.Slug = slug
		changed = true
	}

	return changed, nil
}

// Delete 删除投稿。
func (s *GuestPostService) Delete(ctx context.Context, id string) error {
	if err := s.store.GuestPosts().Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrGuestPostNotFound
		}
		return errors.Wrap(err, "delete guest post")
	}
	log.Logger.Info("guest post deleted", zap.String("id", id))
	return nil
}

// resolveCategoryID 尽力将分类文本解析为分类 ID，无法解析时返回空串。
func (s *GuestPostService) resolveCategoryID(ctx context.Context, text string) (string, error) {
	if trim(text) == "" {
		return "", nil
	}
	category, err := s.store.Categories().FindByKey(ctx, text)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", nil
		}
		return "", errors.Wrap(err, "resolve category")
	}
	return category.ID, nil
}

func renderGuestContent(raw, format string) (string, error) {
	body := trim(raw)
	if body == "" {
		return "", invalidField("articleContent", "article content is required")
	}

	if strings.EqualFold(trim(format), ContentFormatMarkdown) {
		rendered, err := content.RenderMarkdown(body)
		if err != nil {
			return "", err
		}
		body = rendered
	}

	safe := content.SanitizeGuest(body)
	if content.PlainText(safe) == "" && !strings.Contains(safe, "<img") {
		return "", invalidField("articleContent", "article content is required")
	}
	return safe, nil
}

func normalizeEmail(raw string) (string, error) {
	value := trim(raw)
	if value == "" {
		return "", invalidField("email", "email is required")
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return "", invalidField("email", "email is invalid")
	}
	return strings.ToLower(addr.Address), nil
}

func optionalURL(field, raw string) (string, error) {
	value := trim(raw)
	if value == "" {
		return "", nil
	}
	parsed, err := url.Parse(value)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return "", invalidField(field, "%s must be an http(s) url", field)
	}
	return parsed.String(), nil
}
