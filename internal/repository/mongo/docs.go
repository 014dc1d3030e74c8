package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	domcol "github.com/abdul7867/SearchAi/internal/domain/collection"
	domrec "github.com/abdul7867/SearchAi/internal/domain/record"
)

// --- MongoDB document types ---

type sourceDoc struct {
	Title   string `bson:"title"`
	URL     string `bson:"url"`
	Snippet string `bson:"snippet,omitempty"`
	Domain  string `bson:"domain,omitempty"`
}

type metadataDoc struct {
	ProcessingTimeMs   int64 `bson:"processing_time_ms"`
	TokensUsed         int   `bson:"tokens_used"`
	SearchResultsCount int   `bson:"search_results_count"`
}

type searchDoc struct {
	ID             string      `bson:"_id"`
	OwnerID        string      `bson:"owner_id"`
	Query          string      `bson:"query"`
	Answer         string      `bson:"answer"`
	Sources        []sourceDoc `bson:"sources"`
	Focus          string      `bson:"focus"`
	ConversationID string      `bson:"conversation_id,omitempty"`
	Metadata       metadataDoc `bson:"metadata"`
	IsBookmarked   bool        `bson:"is_bookmarked"`
	CreatedAt      time.Time   `bson:"created_at"`
	UpdatedAt      time.Time   `bson:"updated_at"`
}

type collectionDoc struct {
	ID          string    `bson:"_id"`
	OwnerID     string    `bson:"owner_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description"`
	Color       string    `bson:"color"`
	Members     []string  `bson:"members"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

// listingDoc is the $project output of the collection listing pipeline.
type listingDoc struct {
	ID            string    `bson:"_id"`
	OwnerID       string    `bson:"owner_id"`
	Name          string    `bson:"name"`
	Description   string    `bson:"description"`
	Color         string    `bson:"color"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
	SearchesCount int       `bson:"searches_count"`
}

func toSearchDoc(r domrec.Record) searchDoc {
	sources := make([]sourceDoc, len(r.Sources()))
	for i, s := range r.Sources() {
		sources[i] = sourceDoc{Title: s.Title, URL: s.URL, Snippet: s.Snippet, Domain: s.Domain}
	}
	md := r.Metadata()
	return searchDoc{
		ID:             r.ID(),
		OwnerID:        r.Owner(),
		Query:          r.Query(),
		Answer:         r.Answer(),
		Sources:        sources,
		Focus:          string(r.Focus()),
		ConversationID: r.ConversationID(),
		Metadata: metadataDoc{
			ProcessingTimeMs:   md.ProcessingTimeMs,
			TokensUsed:         md.TokensUsed,
			SearchResultsCount: md.SearchResultsCount,
		},
		IsBookmarked: r.IsBookmarked(),
		CreatedAt:    r.CreatedAt(),
		UpdatedAt:    r.UpdatedAt(),
	}
}

func (d searchDoc) toDomain() domrec.Record {
	sources := make([]domrec.Source, len(d.Sources))
	for i, s := range d.Sources {
		sources[i] = domrec.Source{Title: s.Title, URL: s.URL, Snippet: s.Snippet, Domain: s.Domain}
	}
	return domrec.Reconstruct(
		d.ID, d.OwnerID, d.Query, d.Answer, sources, domrec.Focus(d.Focus), d.ConversationID,
		domrec.Metadata{
			ProcessingTimeMs:   d.Metadata.ProcessingTimeMs,
			TokensUsed:         d.Metadata.TokensUsed,
			SearchResultsCount: d.Metadata.SearchResultsCount,
		},
		d.IsBookmarked, d.CreatedAt, d.UpdatedAt,
	)
}

func toCollectionDoc(c domcol.Collection) collectionDoc {
	members := c.Members()
	if members == nil {
		members = []string{}
	}
	return collectionDoc{
		ID:          c.ID(),
		OwnerID:     c.Owner(),
		Name:        c.Name(),
		Description: c.Description(),
		Color:       c.Color(),
		Members:     members,
		CreatedAt:   c.CreatedAt(),
		UpdatedAt:   c.UpdatedAt(),
	}
}

func (d collectionDoc) toDomain() domcol.Collection {
	return domcol.Reconstruct(d.ID, d.OwnerID, d.Name, d.Description, d.Color, d.Members, d.CreatedAt, d.UpdatedAt)
}

func (d listingDoc) toDomain() domcol.Listing {
	return domcol.Listing{
		Collection:    domcol.Reconstruct(d.ID, d.OwnerID, d.Name, d.Description, d.Color, nil, d.CreatedAt, d.UpdatedAt),
		SearchesCount: d.SearchesCount,
	}
}

// --- filters and pipelines ---

// newestFirst orders by creation time, then id, descending.
var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

func listFilter(owner string, bookmarkedOnly bool) bson.M {
	f := bson.M{"owner_id": owner}
	if bookmarkedOnly {
		f["is_bookmarked"] = true
	}
	return f
}

func cleanupFilter(owner string, pivot time.Time) bson.M {
	return bson.M{
		"owner_id":      owner,
		"created_at":    bson.M{"$lt": pivot},
		"is_bookmarked": bson.M{"$ne": true},
	}
}

// addMemberUpdate pushes searchID only when absent so order and uniqueness hold.
func addMemberUpdate(col domcol.Collection, searchID string, now time.Time) (bson.M, bson.M) {
	filter := bson.M{"_id": col.ID(), "owner_id": col.Owner(), "members": bson.M{"$ne": searchID}}
	update := bson.M{
		"$push": bson.M{"members": searchID},
		"$set":  bson.M{"updated_at": now},
	}
	return filter, update
}

func removeMembersUpdate(ids []string, now time.Time) bson.M {
	return bson.M{
		"$pull": bson.M{"members": bson.M{"$in": ids}},
		"$set":  bson.M{"updated_at": now},
	}
}

func listingPipeline(owner string, offset, limit int) []bson.D {
	return []bson.D{
		{{Key: "$match", Value: bson.M{"owner_id": owner}}},
		{{Key: "$sort", Value: newestFirst}},
		{{Key: "$skip", Value: int64(offset)}},
		{{Key: "$limit", Value: int64(limit)}},
		{{Key: "$project", Value: bson.M{
			"owner_id":       1,
			"name":           1,
			"description":    1,
			"color":          1,
			"created_at":     1,
			"updated_at":     1,
			"searches_count": bson.M{"$size": bson.M{"$ifNull": bson.A{"$members", bson.A{}}}},
		}}},
	}
}
