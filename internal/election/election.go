package election

// Top-level keys of the fixture file.
const (
	KeyBallots  = "n"
	KeyTallies  = "t"
	KeyReported = "ro"
	KeyComment  = "__comment"
)

// TopLevelKeys lists the semantic top-level keys in file order.
var TopLevelKeys = []string{KeyBallots, KeyTallies, KeyReported}

// Election is a loaded fixture.
//
// Map shapes, using the usual audit abbreviations:
//
//	Ballots   pbcid -> ballot count                 (file key "n")
//	Tallies   cid -> pbcid -> vid -> count          (file key "t")
//	Reported  cid -> reported winning vid           (file key "ro")
type Election struct {
	Ballots  map[string]int64
	Tallies  map[string]map[string]map[string]int64
	Reported map[string]string

	// Comments holds __comment annotations in file order.
	Comments []Comment
}

// Comment is a __comment annotation.
// Anchor is the top-level key that follows the comment in the file, or ""
// when the comment trails every key.
type Comment struct {
	Anchor string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Text   string `json:"text" yaml:"text"`
}

// New returns an empty Election with all maps allocated.
func New() *Election {
	return &Election{
		Ballots:  make(map[string]int64),
		Tallies:  make(map[string]map[string]map[string]int64),
		Reported: make(map[string]string),
	}
}

// SetTally records count for vid in contest cid and collection pbcid,
// allocating intermediate maps as needed.
func (e *Election) SetTally(cid, pbcid, vid string, count int64) {
	byCollection, ok := e.Tallies[cid]
	if !ok {
		byCollection = make(map[string]map[string]int64)
		e.Tallies[cid] = byCollection
	}
	byVote, ok := byCollection[pbcid]
	if !ok {
		byVote = make(map[string]int64)
		byCollection[pbcid] = byVote
	}
	byVote[vid] = count
}

// AddTally adds delta to the count for vid in contest cid and collection pbcid.
func (e *Election) AddTally(cid, pbcid, vid string, delta int64) {
	e.SetTally(cid, pbcid, vid, e.Tallies[cid][pbcid][vid]+delta)
}

// AddComment appends a __comment annotation anchored before key.
func (e *Election) AddComment(anchor, text string) {
	e.Comments = append(e.Comments, Comment{Anchor: anchor, Text: text})
}

// CommentsBefore returns the comment texts anchored before key, in order.
func (e *Election) CommentsBefore(key string) []string {
	var texts []string
	for _, c := range e.Comments {
		if c.Anchor == key {
			texts = append(texts, c.Text)
		}
	}
	return texts
}

// Clone returns a deep copy of e.
func (e *Election) Clone() *Election {
	out := New()
	for pbcid, n := range e.Ballots {
		out.Ballots[pbcid] = n
	}
	for cid, byCollection := range e.Tallies {
		out.Tallies[cid] = make(map[string]map[string]int64, len(byCollection))
		for pbcid, byVote := range byCollection {
			copied := make(map[string]int64, len(byVote))
			for vid, count := range byVote {
				copied[vid] = count
			}
			out.Tallies[cid][pbcid] = copied
		}
	}
	for cid, vid := range e.Reported {
		out.Reported[cid] = vid
	}
	if e.Comments != nil {
		out.Comments = append([]Comment(nil), e.Comments...)
	}
	return out
}

// ContestIDs returns every contest id that appears in Tallies or Reported,
// in canonical order.
func (e *Election) ContestIDs() []string {
	seen := make(map[string]bool, len(e.Tallies)+len(e.Reported))
	for cid := range e.Tallies {
		seen[cid] = true
	}
	for cid := range e.Reported {
		seen[cid] = true
	}
	return sortedSet(seen)
}

// CollectionIDs returns every collection id that appears in Ballots or in
// any contest's tallies, in canonical order.
func (e *Election) CollectionIDs() []string {
	seen := make(map[string]bool, len(e.Ballots))
	for pbcid := range e.Ballots {
		seen[pbcid] = true
	}
	for _, byCollection := range e.Tallies {
		for pbcid := range byCollection {
			seen[pbcid] = true
		}
	}
	return sortedSet(seen)
}

// CollectionsFor returns the collections contributing tallies to contest cid.
func (e *Election) CollectionsFor(cid string) []string {
	return SortedKeys(e.Tallies[cid])
}

// ContestsFor returns the contests that have tallies in collection pbcid.
func (e *Election) ContestsFor(pbcid string) []string {
	var cids []string
	for cid, byCollection := range e.Tallies {
		if _, ok := byCollection[pbcid]; ok {
			cids = append(cids, cid)
		}
	}
	SortIDs(cids)
	return cids
}

// VotesFor returns every vote value tallied for contest cid in any collection.
func (e *Election) VotesFor(cid string) []string {
	seen := make(map[string]bool)
	for _, byVote := range e.Tallies[cid] {
		for vid := range byVote {
			seen[vid] = true
		}
	}
	return sortedSet(seen)
}

// Cast returns the number of ballots tallied for contest cid in collection pbcid.
func (e *Election) Cast(cid, pbcid string) int64 {
	var sum int64
	for _, count := range e.Tallies[cid][pbcid] {
		sum += count
	}
	return sum
}

// Totals returns the per-vote totals for contest cid summed over collections.
func (e *Election) Totals(cid string) map[string]int64 {
	totals := make(map[string]int64)
	for _, byVote := range e.Tallies[cid] {
		for vid, count := range byVote {
			totals[vid] += count
		}
	}
	return totals
}

// TotalBallots returns the sum of all collection ballot counts.
func (e *Election) TotalBallots() int64 {
	var sum int64
	for _, n := range e.Ballots {
		sum += n
	}
	return sum
}

func sortedSet(set map[string]bool) []string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	SortIDs(ids)
	return ids
}
