package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/lumina/internal/content"
	"github.com/lumina/internal/store"
)

// PageSize 是公共列表的固定分页大小。
const PageSize = 6

const maxSlugAttempts = 50

func trim(value string) string {
	return strings.TrimSpace(value)
}

func lowerTrim(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// totalPages 返回 ceil(total/size)。
func totalPages(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// slugTaken 检查 slug 是否已被编辑文章或投稿占用。
func slugTaken(ctx context.Context, st store.Store, slug, excludeID string) (bool, error) {
	taken, err := st.Blogs().SlugExists(ctx, slug, excludeID)
	if err != nil || taken {
		return taken, err
	}
	return st.GuestPosts().SlugExists(ctx, slug, excludeID)
}

// uniqueSlug 由标题生成在两个集合中都未被占用的 slug。
// 冲突时追加当前毫秒时间戳的末四位，仍冲突则继续追加序号。
func uniqueSlug(ctx context.Context, st store.Store, now time.Time, title, excludeID string) (string, error) {
	base := content.Slugify(title)

	taken, err := slugTaken(ctx, st, base, excludeID)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}

	suffix := fmt.Sprintf("%04d", now.UnixMilli()%10000)
	candidate := base + "-" + suffix
	for attempt := 2; attempt <= maxSlugAttempts; attempt++ {
		taken, err := slugTaken(ctx, st, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%s-%d", base, suffix, attempt)
	}

	return "", errors.Wrapf(ErrSlugTaken, "no free slug for %q", base)
}

// explicitSlug 规范化调用方指定的 slug，被占用时返回 ErrSlugTaken。
func explicitSlug(ctx context.Context, st store.Store, raw, excludeID string) (string, error) {
	slug := content.Slugify(raw)
	taken, err := slugTaken(ctx, st, slug, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		return "", errors.Wrapf(ErrSlugTaken, "slug %q", slug)
	}
	return slug, nil
}
