package mongostore

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/lumina/internal/store"
)

// exactFold matches the whole value ignoring case.
func exactFold(value string) primitive.Regex {
	return primitive.Regex{Pattern: "^" + regexp.QuoteMeta(value) + "$", Options: "i"}
}

// containsFold matches a substring ignoring case.
func containsFold(value string) primitive.Regex {
	return primitive.Regex{Pattern: regexp.QuoteMeta(value), Options: "i"}
}

func excludeIDFilter(filter bson.D, excludeID string) bson.D {
	if excludeID == "" {
		return filter
	}
	return append(filter, bson.E{Key: "_id", Value: bson.D{{Key: "$ne", Value: excludeID}}})
}

func blogQuery(filter store.BlogFilter) bson.D {
	query := bson.D{}
	if filter.Status != "" {
		query = append(query, bson.E{Key: "status", Value: string(filter.Status)})
	}
	if filter.CategoryID != "" {
		query = append(query, bson.E{Key: "categoryId", Value: filter.CategoryID})
	}
	if filter.ExcludeSlug != "" {
		query = append(query, bson.E{Key: "slug", Value: bson.D{{Key: "$ne", Value: filter.ExcludeSlug}}})
	}
	return query
}

func guestPostQuery(filter store.GuestPostFilter) bson.D {
	query := bson.D{}
	if len(filter.Statuses) > 0 {
		statuses := make(bson.A, 0, len(filter.Statuses))
		for _, status := range filter.Statuses {
			statuses = append(statuses, string(status))
		}
		query = append(query, bson.E{Key: "status", Value: bson.D{{Key: "$in", Value: statuses}}})
	}

	var clauses bson.A

	categoryText := strings.TrimSpace(filter.CategoryText)
	var category bson.A
	if filter.CategoryID != "" {
		category = append(category, bson.D{{Key: "categoryId", Value: filter.CategoryID}})
	}
	if categoryText != "" {
		category = append(category, bson.D{{Key: "category", Value: exactFold(categoryText)}})
	}
	if len(category) > 0 {
		clauses = append(clauses, bson.D{{Key: "$or", Value: category}})
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := containsFold(search)
		clauses = append(clauses, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "articleTitle", Value: pattern}},
			bson.D{{Key: "name", Value: pattern}},
			bson.D{{Key: "email", Value: pattern}},
		}}})
	}

	if len(clauses) > 0 {
		query = append(query, bson.E{Key: "$and", Value: clauses})
	}
	return query
}

func categoryKeyQuery(key string) bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "_id", Value: key}},
		bson.D{{Key: "slug", Value: strings.ToLower(key)}},
		bson.D{{Key: "name", Value: exactFold(key)}},
	}}}
}

func categoryTakenQuery(name, slug, excludeID string) bson.D {
	query := bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "name", Value: exactFold(strings.TrimSpace(name))}},
		bson.D{{Key: "slug", Value: slug}},
	}}}
	return excludeIDFilter(query, excludeID)
}
