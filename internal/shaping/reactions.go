package shaping

import "inkwell/internal/models"

// Tally is the like/dislike count of one blog as seen by one viewer.
type Tally struct {
	Likes    int    `json:"likes"`
	Dislikes int    `json:"dislikes"`
	Viewer   string `json:"viewer_reaction,omitempty"`
}

// CountReactions counts reactions and picks out viewer's own, if any.
func CountReactions(reactions []models.Reaction, viewer string) Tally {
	var t Tally
	for _, r := range reactions {
		switch r.Reaction {
		case models.ReactionLike:
			t.Likes++
		case models.ReactionDislike:
			t.Dislikes++
		default:
			continue
		}
		if viewer != "" && r.UserID == viewer {
			t.Viewer = r.Reaction
		}
	}
	return t
}
