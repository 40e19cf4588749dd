// Package snapshot serves registry records from a JSON dump held in memory.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/bibbank/registry-risk/internal/domain/model"
)

// Dataset is the on-disk layout of a registry dump.
type Dataset struct {
	Entities     []model.EntityRecord      `json:"entities"`
	Partnerships []model.PartnershipRecord `json:"partnerships"`
}

// Source implements port.RegistrySource over a Dataset. It expands the same
// way the Postgres source does: owners and holdings of each company, and the
// other holdings of its individual partners, count as one hop.
type Source struct {
	depth    int
	entities map[string][]model.EntityRecord // by base, in file order
	ownedBy  map[string][]int                // owned base -> partnership rows
	ownerOf  map[string][]int                // owner id (base for companies) -> rows
	rows     []model.PartnershipRecord
}

// New indexes ds. A depth below one defaults to two hops.
func New(ds Dataset, depth int) *Source {
	if depth < 1 {
		depth = 2
	}
	s := &Source{
		depth:    depth,
		entities: make(map[string][]model.EntityRecord),
		ownedBy:  make(map[string][]int),
		ownerOf:  make(map[string][]int),
		rows:     ds.Partnerships,
	}
	for _, e := range ds.Entities {
		if base := e.BaseID(); base != "" {
			s.entities[base] = append(s.entities[base], e)
		}
	}
	for i, p := range ds.Partnerships {
		s.ownedBy[p.OwnedBaseID()] = append(s.ownedBy[p.OwnedBaseID()], i)
		if owner, _, ok := model.ClassifyOwner(p.OwnerID); ok {
			s.ownerOf[owner] = append(s.ownerOf[owner], i)
		}
	}
	return s
}

// Load reads a Dataset from a JSON file.
func Load(path string, depth int) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %s: %w", path, err)
	}
	return New(ds, depth), nil
}

// Decode parses a Dataset.
func Decode(r io.Reader) (Dataset, error) {
	var ds Dataset
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ds); err != nil {
		return Dataset{}, fmt.Errorf("decode dataset: %w", err)
	}
	return ds, nil
}

// Fetch implements port.RegistrySource.
func (s *Source) Fetch(ctx context.Context, subject model.Subject) (model.AnalysisInput, error) {
	if err := ctx.Err(); err != nil {
		return model.AnalysisInput{}, err
	}

	var (
		in       model.AnalysisInput
		frontier []string
	)
	switch subject.Kind {
	case model.KindCompany:
		in.Target = s.target(subject)
		frontier = []string{subject.ID}
	case model.KindPerson:
		key := subject.ID
		for _, k := range subject.PersonKeys() {
			if len(s.ownerOf[k]) > 0 {
				key = k
				break
			}
		}
		in.Target = model.EntityRecord{ID: key}
		for _, i := range s.ownerOf[key] {
			frontier = append(frontier, s.rows[i].OwnedBaseID())
		}
	default:
		return in, fmt.Errorf("snapshot: unsupported subject kind %q", subject.Kind)
	}

	bases := s.expand(frontier)
	for _, base := range bases {
		if records := s.entities[base]; len(records) > 0 {
			in.RelatedEntities = append(in.RelatedEntities, headOffice(records))
		}
	}
	if len(in.RelatedEntities) == 0 {
		return in, nil
	}

	var rows []int
	for _, base := range bases {
		rows = append(rows, s.ownedBy[base]...)
	}
	slices.Sort(rows)
	for _, i := range rows {
		in.RelatedPartnerships = append(in.RelatedPartnerships, s.rows[i])
	}
	return in, nil
}

func (s *Source) target(subject model.Subject) model.EntityRecord {
	records := s.entities[subject.ID]
	for _, r := range records {
		if model.NormalizeID(r.ID) == subject.Raw {
			return r
		}
	}
	if len(records) > 0 {
		return headOffice(records)
	}
	return model.EntityRecord{ID: subject.ID}
}

// headOffice picks the lowest establishment id of one base.
func headOffice(records []model.EntityRecord) model.EntityRecord {
	return slices.MinFunc(records, func(a, b model.EntityRecord) int {
		return strings.Compare(model.NormalizeID(a.ID), model.NormalizeID(b.ID))
	})
}

func (s *Source) expand(frontier []string) []string {
	seen := make(map[string]struct{})
	var all []string
	add := func(ids []string) []string {
		var fresh []string
		for _, id := range ids {
			if _, ok := seen[id]; ok || id == "" {
				continue
			}
			seen[id] = struct{}{}
			all = append(all, id)
			fresh = append(fresh, id)
		}
		return fresh
	}

	next := add(frontier)
	for hop := 0; hop < s.depth && len(next) > 0; hop++ {
		var reached []string
		for _, base := range next {
			for _, i := range s.ownedBy[base] {
				owner, kind, ok := model.ClassifyOwner(s.rows[i].OwnerID)
				switch {
				case !ok:
				case kind == model.KindCompany:
					reached = append(reached, owner)
				default:
					for _, j := range s.ownerOf[owner] {
						reached = append(reached, s.rows[j].OwnedBaseID())
					}
				}
			}
			for _, i := range s.ownerOf[base] {
				reached = append(reached, s.rows[i].OwnedBaseID())
			}
		}
		slices.Sort(reached)
		next = add(reached)
	}

	slices.Sort(all)
	return all
}
