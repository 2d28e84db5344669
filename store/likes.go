package store

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// LikeIndex maps a user id to the post ids that user liked. It is the source of truth for
// like state; post like counters are derived from it.
type LikeIndex struct {
	entries map[string][]string
	dirty   bool
}

func newLikeIndex() *LikeIndex {
	return &LikeIndex{entries: map[string][]string{}}
}

func decodeLikes(data []byte) (*LikeIndex, error) {
	raw := map[string][]string{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%s: %w", likesBlob, err)
		}
	}
	x := newLikeIndex()
	for user, posts := range raw {
		seen := make(map[string]bool, len(posts))
		for _, p := range posts {
			if seen[p] {
				continue
			}
			seen[p] = true
			x.entries[user] = append(x.entries[user], p)
		}
	}
	return x, nil
}

func (x *LikeIndex) encode() ([]byte, error) {
	return json.MarshalIndent(x.entries, "", "  ")
}

func (x *LikeIndex) clone() *LikeIndex {
	out := &LikeIndex{entries: make(map[string][]string, len(x.entries))}
	for user, posts := range x.entries {
		out.entries[user] = append([]string(nil), posts...)
	}
	return out
}

// IsLiked reports whether userID liked postID.
func (x *LikeIndex) IsLiked(postID, userID int) bool {
	return indexOf(x.entries[strconv.Itoa(userID)], strconv.Itoa(postID)) >= 0
}

// Add records a like; it returns false if it was already present.
func (x *LikeIndex) Add(postID, userID int) bool {
	user, post := strconv.Itoa(userID), strconv.Itoa(postID)
	if indexOf(x.entries[user], post) >= 0 {
		return false
	}
	x.entries[user] = append(x.entries[user], post)
	x.dirty = true
	return true
}

// Remove drops a like; it returns false if there was none.
func (x *LikeIndex) Remove(postID, userID int) bool {
	user, post := strconv.Itoa(userID), strconv.Itoa(postID)
	posts := x.entries[user]
	i := indexOf(posts, post)
	if i < 0 {
		return false
	}
	posts = append(posts[:i:i], posts[i+1:]...)
	if len(posts) == 0 {
		delete(x.entries, user)
	} else {
		x.entries[user] = posts
	}
	x.dirty = true
	return true
}

// PurgePost removes postID from every user's set and returns how many entries were dropped.
func (x *LikeIndex) PurgePost(postID int) int {
	post := strconv.Itoa(postID)
	removed := 0
	for user, posts := range x.entries {
		if i := indexOf(posts, post); i >= 0 {
			posts = append(posts[:i:i], posts[i+1:]...)
			if len(posts) == 0 {
				delete(x.entries, user)
			} else {
				x.entries[user] = posts
			}
			removed++
		}
	}
	if removed > 0 {
		x.dirty = true
	}
	return removed
}

// CountFor is the number of users who liked postID.
func (x *LikeIndex) CountFor(postID int) int {
	post := strconv.Itoa(postID)
	n := 0
	for _, posts := range x.entries {
		if indexOf(posts, post) >= 0 {
			n++
		}
	}
	return n
}

// Counts returns like counts for every referenced post id. Unparseable ids are skipped.
func (x *LikeIndex) Counts() map[int]int {
	out := map[int]int{}
	for _, posts := range x.entries {
		for _, p := range posts {
			if id, err := strconv.Atoi(p); err == nil {
				out[id]++
			}
		}
	}
	return out
}

// LikedBy lists the post ids liked by userID in the order they were liked.
func (x *LikeIndex) LikedBy(userID int) []int {
	var out []int
	for _, p := range x.entries[strconv.Itoa(userID)] {
		if id, err := strconv.Atoi(p); err == nil {
			out = append(out, id)
		}
	}
	return out
}

// Retain drops every post id for which keep returns false and reports how many entries went away.
func (x *LikeIndex) Retain(keep func(postID int) bool) int {
	removed := 0
	for user, posts := range x.entries {
		kept := posts[:0:0]
		for _, p := range posts {
			id, err := strconv.Atoi(p)
			if err != nil || !keep(id) {
				removed++
				continue
			}
			kept = append(kept, p)
		}
		if len(kept) == 0 {
			delete(x.entries, user)
		} else {
			x.entries[user] = kept
		}
	}
	if removed > 0 {
		x.dirty = true
	}
	return removed
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
