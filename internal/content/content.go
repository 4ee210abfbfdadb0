// Package content 处理文章正文：slug 生成、HTML 清洗、Markdown 渲染与阅读时长估算。
package content

import (
	"bytes"
	"math"
	"regexp"
	"strings"

	"github.com/Laisky/errors/v2"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// WordsPerMinute 是估算阅读时长时采用的阅读速度。
const WordsPerMinute = 200

// DefaultSlug 在标题无法生成任何字符时使用。
const DefaultSlug = "post"

var (
	slugInvalidPattern = regexp.MustCompile(`[^a-z0-9]+`)
	videoEmbedSrc      = regexp.MustCompile(
		`^https://(?:www\.)?(?:youtube\.com/embed/|youtube-nocookie\.com/embed/|player\.vimeo\.com/video/)`,
	)

	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	guestPolicy  = bluemonday.UGCPolicy()
	editorPolicy = buildEditorPolicy()
	textPolicy   = bluemonday.StrictPolicy()
)

// buildEditorPolicy 在 UGC 规则之上允许后台编辑器插入的视频 iframe。
func buildEditorPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("iframe")
	policy.AllowAttrs("src").Matching(videoEmbedSrc).OnElements("iframe")
	policy.AllowAttrs("title", "allow", "allowfullscreen", "frameborder", "loading", "referrerpolicy").OnElements("iframe")
	policy.AllowAttrs("class").OnElements("div", "span", "pre", "code")
	return policy
}

// Slugify 将标题转为小写，把连续的非字母数字字符替换为单个连字符并去掉首尾连字符。
func Slugify(title string) string {
	slug := slugInvalidPattern.ReplaceAllString(strings.ToLower(title), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return DefaultSlug
	}
	return slug
}

// SanitizeGuest 使用 UGC 规则清洗投稿 HTML。
func SanitizeGuest(raw string) string {
	return strings.TrimSpace(guestPolicy.Sanitize(raw))
}

// SanitizeEditor 清洗后台编辑器提交的 HTML，允许白名单内的视频嵌入。
func SanitizeEditor(raw string) string {
	return strings.TrimSpace(editorPolicy.Sanitize(raw))
}

// RenderMarkdown 将 Markdown 渲染为 HTML，结果仍需经过清洗。
func RenderMarkdown(source string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(source), &buf); err != nil {
		return "", errors.Wrap(err, "render markdown")
	}
	return buf.String(), nil
}

// PlainText 去掉全部标签并折叠空白。
func PlainText(htmlContent string) string {
	return strings.Join(strings.Fields(textPolicy.Sanitize(htmlContent)), " ")
}

// ReadTime 以分钟为单位估算阅读时长，至少 1 分钟。
func ReadTime(htmlContent string) int {
	words := len(strings.Fields(textPolicy.Sanitize(htmlContent)))
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
