package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/store"
)

func parseStamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{models.TimeLayout, time.RFC3339, models.DateLayout} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t
		}
	}
	return time.Time{}
}

func formatStamp(t time.Time) string {
	return t.Format(models.TimeLayout)
}

func userFromRow(r store.Row) models.User {
	return models.User{
		ID:           r.IntOr("user_id", 0),
		Username:     r["username"],
		PasswordHash: r["password_sha256"],
		Email:        r["email"],
		Country:      r["country"],
		City:         r["city_in_korea"],
		JoinedAt:     parseStamp(r["joined_at"]),
	}
}

func userRow(u models.User) store.Row {
	return store.Row{
		"user_id":         strconv.Itoa(u.ID),
		"username":        u.Username,
		"password_sha256": u.PasswordHash,
		"email":           u.Email,
		"country":         u.Country,
		"city_in_korea":   u.City,
		"joined_at":       formatStamp(u.JoinedAt),
	}
}

func postFromRow(r store.Row) models.Post {
	likes := r.IntOr("likes", 0)
	if likes < 0 {
		likes = 0
	}
	return models.Post{
		ID:        r.IntOr("post_id", 0),
		UserID:    r.IntOr("user_id", 0),
		Content:   r["content"],
		Tags:      r["tags"],
		CreatedAt: parseStamp(r["created_at"]),
		Likes:     likes,
		Reposts:   r.IntOr("reposts", 0),
	}
}

func postRow(p models.Post) store.Row {
	return store.Row{
		"post_id":    strconv.Itoa(p.ID),
		"user_id":    strconv.Itoa(p.UserID),
		"content":    p.Content,
		"tags":       p.Tags,
		"created_at": formatStamp(p.CreatedAt),
		"likes":      strconv.Itoa(p.Likes),
		"reposts":    strconv.Itoa(p.Reposts),
	}
}

func commentFromRow(r store.Row) models.Comment {
	return models.Comment{
		ID:        r.IntOr("comment_id", 0),
		PostID:    r.IntOr("post_id", 0),
		UserID:    r.IntOr("user_id", 0),
		Content:   r["content"],
		CreatedAt: parseStamp(r["created_at"]),
	}
}

func commentRow(c models.Comment) store.Row {
	return store.Row{
		"comment_id": strconv.Itoa(c.ID),
		"post_id":    strconv.Itoa(c.PostID),
		"user_id":    strconv.Itoa(c.UserID),
		"content":    c.Content,
		"created_at": formatStamp(c.CreatedAt),
	}
}

func listingFromRow(r store.Row) models.TravelListing {
	status := strings.ToLower(strings.TrimSpace(r["status"]))
	if status == "" {
		status = models.StatusOpen
	}
	return models.TravelListing{
		ID:                 r.IntOr("mate_id", 0),
		UserID:             r.IntOr("user_id", 0),
		Title:              r["title"],
		DepartureCity:      r["departure_city"],
		DestinationCity:    r["destination_city"],
		DateFrom:           r["date_from"],
		DateTo:             r["date_to"],
		BudgetRange:        r["budget_range_krw"],
		PreferredTransport: r["preferred_transport"],
		Contact:            r["contact"],
		Notes:              r["notes"],
		Status:             status,
		MaxPeople:          r.IntOr("max_people", 0),
		CurrentPeople:      r.IntOr("current_people", 0),
		Participants:       splitIDs(r["participants"]),
		CreatedAt:          parseStamp(r["created_at"]),
	}
}

func listingRow(l models.TravelListing) store.Row {
	return store.Row{
		"mate_id":             strconv.Itoa(l.ID),
		"user_id":             strconv.Itoa(l.UserID),
		"title":               l.Title,
		"departure_city":      l.DepartureCity,
		"destination_city":    l.DestinationCity,
		"date_from":           l.DateFrom,
		"date_to":             l.DateTo,
		"budget_range_krw":    l.BudgetRange,
		"preferred_transport": l.PreferredTransport,
		"contact":             l.Contact,
		"notes":               l.Notes,
		"status":              l.Status,
		"created_at":          formatStamp(l.CreatedAt),
		"max_people":          strconv.Itoa(l.MaxPeople),
		"current_people":      strconv.Itoa(l.CurrentPeople),
		"participants":        joinIDs(l.Participants),
	}
}

func splitIDs(raw string) []int {
	var ids []int
	seen := map[int]bool{}
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

func joinIDs(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}

// normalizeTags trims each comma separated tag and drops empty ones.
func normalizeTags(raw string) string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return strings.Join(tags, ",")
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
