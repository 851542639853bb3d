package graph

import (
	"slices"
	"sort"
	"strings"
)

// RDFType is the rdf:type predicate IRI.
const RDFType = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// Store is an indexed, de-duplicated set of triples. It supports forward
// (subject, predicate -> objects) and inverse (predicate, object ->
// subjects) lookups. Multi-valued results are always returned sorted with
// Less, so callers get the same order on every run regardless of the order
// triples were added in.
//
// A Store is not safe for concurrent mutation. Concurrent reads after
// loading has finished are fine.
type Store struct {
	spo      map[string]map[string][]Term
	pos      map[string]map[string][]Term
	terms    map[string]Term
	seen     map[string]struct{}
	triples  []Triple
	prefixes map[string]string
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		spo:      make(map[string]map[string][]Term),
		pos:      make(map[string]map[string][]Term),
		terms:    make(map[string]Term),
		seen:     make(map[string]struct{}),
		prefixes: make(map[string]string),
	}
}

// Add inserts a triple. It returns false when the triple was already present.
func (s *Store) Add(t Triple) bool {
	sk, ok := t.Subject.Key(), t.Object.Key()
	id := sk + " <" + t.Predicate + "> " + ok
	if _, dup := s.seen[id]; dup {
		return false
	}
	s.seen[id] = struct{}{}
	s.triples = append(s.triples, t)
	s.terms[sk] = t.Subject
	s.terms[ok] = t.Object

	byPred, found := s.spo[sk]
	if !found {
		byPred = make(map[string][]Term)
		s.spo[sk] = byPred
	}
	byPred[t.Predicate] = insertSorted(byPred[t.Predicate], t.Object)

	byObj, found := s.pos[t.Predicate]
	if !found {
		byObj = make(map[string][]Term)
		s.pos[t.Predicate] = byObj
	}
	byObj[ok] = insertSorted(byObj[ok], t.Subject)
	return true
}

// AddAll inserts every triple and returns how many were new.
func (s *Store) AddAll(triples []Triple) int {
	added := 0
	for _, t := range triples {
		if s.Add(t) {
			added++
		}
	}
	return added
}

func insertSorted(list []Term, t Term) []Term {
	i := sort.Search(len(list), func(i int) bool { return !Less(list[i], t) })
	return slices.Insert(list, i, t)
}

// Len returns the number of distinct triples.
func (s *Store) Len() int {
	return len(s.triples)
}

// Triples returns all triples in insertion order.
func (s *Store) Triples() []Triple {
	return slices.Clone(s.triples)
}

// SubjectTerms returns every distinct subject, sorted with Less.
func (s *Store) SubjectTerms() []Term {
	out := make([]Term, 0, len(s.spo))
	for key := range s.spo {
		out = append(out, s.terms[key])
	}
	slices.SortFunc(out, compare)
	return out
}

// Objects returns the objects of (subject, predicate, ?).
func (s *Store) Objects(subject Term, predicate string) []Term {
	return slices.Clone(s.spo[subject.Key()][predicate])
}

// Subjects returns the subjects of (?, predicate, object). This inverse
// lookup is what derives narrower relations from stored broader edges.
func (s *Store) Subjects(predicate string, object Term) []Term {
	return slices.Clone(s.pos[predicate][object.Key()])
}

// Value returns the first object of (subject, predicate, ?).
func (s *Store) Value(subject Term, predicate string) (Term, bool) {
	objs := s.spo[subject.Key()][predicate]
	if len(objs) == 0 {
		return Term{}, false
	}
	return objs[0], true
}

// Has reports whether the exact triple is present.
func (s *Store) Has(subject Term, predicate string, object Term) bool {
	_, ok := s.seen[subject.Key()+" <"+predicate+"> "+object.Key()]
	return ok
}

// SubjectsOfType returns every subject typed with the given class IRI.
func (s *Store) SubjectsOfType(class string) []Term {
	return s.Subjects(RDFType, IRI(class))
}

// ObjectsOf returns every distinct object used with the predicate.
func (s *Store) ObjectsOf(predicate string) []Term {
	byObj := s.pos[predicate]
	out := make([]Term, 0, len(byObj))
	for key := range byObj {
		out = append(out, s.terms[key])
	}
	slices.SortFunc(out, compare)
	return out
}

// PredicateObjects returns the triples whose subject is the given term,
// ordered by predicate IRI and then object.
func (s *Store) PredicateObjects(subject Term) []Triple {
	byPred := s.spo[subject.Key()]
	preds := make([]string, 0, len(byPred))
	for p := range byPred {
		preds = append(preds, p)
	}
	sort.Strings(preds)

	var out []Triple
	for _, p := range preds {
		for _, o := range byPred[p] {
			out = append(out, Triple{Subject: subject, Predicate: p, Object: o})
		}
	}
	return out
}

// BindPrefix registers a namespace prefix used by QName.
func (s *Store) BindPrefix(prefix, namespace string) {
	s.prefixes[prefix] = namespace
}

// Prefixes returns a copy of the namespace bindings.
func (s *Store) Prefixes() map[string]string {
	out := make(map[string]string, len(s.prefixes))
	for k, v := range s.prefixes {
		out[k] = v
	}
	return out
}

// QName shortens an IRI with the longest matching namespace binding. IRIs
// without a binding come back as <iri>.
func (s *Store) QName(iri string) string {
	best, bestNS := "", ""
	for prefix, ns := range s.prefixes {
		if ns == "" || !strings.HasPrefix(iri, ns) || len(ns) < len(bestNS) {
			continue
		}
		if len(ns) == len(bestNS) && prefix > best {
			continue
		}
		local := iri[len(ns):]
		if strings.ContainsAny(local, "/#") {
			continue
		}
		best, bestNS = prefix, ns
	}
	if bestNS == "" {
		return "<" + iri + ">"
	}
	return best + ":" + iri[len(bestNS):]
}

func compare(a, b Term) int {
	switch {
	case Less(a, b):
		return -1
	case Less(b, a):
		return 1
	default:
		return 0
	}
}
