// Package shaping turns flat rows from the backend into the shapes the views
// render: blogs with their author, comment trees, image grids and reaction
// tallies. Nothing here talks to storage except through a ProfileLookup.
package shaping

import (
	"context"

	"inkwell/internal/models"
)

// ProfileLookup resolves profiles by id in one round trip. Ids without a
// profile are absent from the result.
type ProfileLookup func(ctx context.Context, ids []string) (map[string]*models.Profile, error)

func distinct(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// AttachProfiles sets Profile on every blog, looking each distinct author up
// once. A missing profile leaves Profile nil.
func AttachProfiles(ctx context.Context, blogs []*models.Blog, lookup ProfileLookup) error {
	ids := make([]string, 0, len(blogs))
	for _, b := range blogs {
		ids = append(ids, b.UserID)
	}
	ids = distinct(ids)
	if len(ids) == 0 {
		return nil
	}

	profiles, err := lookup(ctx, ids)
	if err != nil {
		return err
	}
	for _, b := range blogs {
		b.Profile = profiles[b.UserID]
	}
	return nil
}

// AttachCommentProfiles sets the username and avatar summary on every
// comment.
func AttachCommentProfiles(ctx context.Context, comments []*models.Comment, lookup ProfileLookup) error {
	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.UserID)
	}
	ids = distinct(ids)
	if len(ids) == 0 {
		return nil
	}

	profiles, err := lookup(ctx, ids)
	if err != nil {
		return err
	}
	for _, c := range comments {
		c.Profile = profiles[c.UserID].Summary()
	}
	return nil
}
