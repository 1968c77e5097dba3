package ranking

import "sort"

// Page is one window of the ranked sequence.
type Page struct {
	Items      []*ScoredPosting
	Number     int
	Limit      int
	Total      int
	TotalPages int
}

// sortResult orders the result deterministically. Fitness score
// descending leads when scoring was requested, recency otherwise; ties
// break on creation time descending and finally posting id ascending,
// giving a total order so repeated calls paginate stably.
func sortResult(res *Result, byScore bool) {
	sort.SliceStable(res.Items, func(i, j int) bool {
		a, b := res.Items[i], res.Items[j]

		if byScore && a.Score.Value != b.Score.Value {
			return a.Score.Value > b.Score.Value
		}
		if !a.Posting.CreatedAt.Equal(b.Posting.CreatedAt) {
			return a.Posting.CreatedAt.After(b.Posting.CreatedAt)
		}
		return a.Posting.ID.String() < b.Posting.ID.String()
	})
}

// paginate slices a 1-indexed window. A page past the end of the
// result is an empty page, not an error.
func paginate(res *Result, page, limit int) Page {
	total := res.Len()
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	out := Page{
		Items:      []*ScoredPosting{},
		Number:     page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
	}

	start := (page - 1) * limit
	if start >= total {
		return out
	}
	end := start + limit
	if end > total {
		end = total
	}

	out.Items = res.Items[start:end]
	return out
}
