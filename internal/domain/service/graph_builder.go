package service

import (
	"fmt"

	"github.com/bibbank/registry-risk/internal/domain/model"
)

// Data-quality issue kinds emitted while building the graph.
const (
	IssueInvalidOwner = "OWNER_ID_INVALID"
	IssueInvalidOwned = "OWNED_ID_INVALID"
)

// GraphBuild is the ownership graph of one analysis plus what was learned
// while building it.
type GraphBuild struct {
	Graph *model.OwnershipGraph
	// Root is the node id of the analyzed subject, empty when the target has no id.
	Root   string
	Names  map[string]string
	Issues []model.DataQualityIssue
}

// BuildGraph turns the flat record lists into an ownership graph. It never
// fails: an empty input yields an empty graph.
func BuildGraph(in model.AnalysisInput) GraphBuild {
	g := model.NewOwnershipGraph()
	var issues []model.DataQualityIssue

	for _, r := range in.RelatedEntities {
		if r.BaseID() == "" {
			continue
		}
		g.AddNode(model.EntityFromRecord(r))
	}

	root := rootID(in.Target)
	switch {
	case root == "":
	case len(root) == model.CNPJBaseLength:
		g.PutNode(model.EntityFromRecord(in.Target))
	default:
		g.PutNode(model.Entity{ID: root, Kind: model.KindPerson, Name: in.Target.Name})
	}

	for i, p := range in.RelatedPartnerships {
		owner, kind, ok := model.ClassifyOwner(p.OwnerID)
		if !ok {
			issues = append(issues, model.DataQualityIssue{
				Kind:   IssueInvalidOwner,
				Record: i,
				Value:  p.OwnerID,
				Detail: fmt.Sprintf("owner id with %d characters is neither a CNPJ nor a CPF", len(owner)),
			})
			continue
		}
		owned := p.OwnedBaseID()
		if len(owned) != model.CNPJBaseLength {
			issues = append(issues, model.DataQualityIssue{
				Kind:   IssueInvalidOwned,
				Record: i,
				Value:  p.OwnedEntityID,
				Detail: "owned entity id is not a company identifier",
			})
			continue
		}

		g.EnsureNode(owner, kind, p.OwnerName)
		g.AddEdge(model.Relationship{
			From:          owner,
			To:            owned,
			Qualification: p.Qualification,
			Kind:          model.EdgeParticipation,
		})
	}

	return GraphBuild{
		Graph:  g,
		Root:   root,
		Names:  g.Names(),
		Issues: issues,
	}
}

// rootID returns the node id the target record is known by in the graph.
func rootID(target model.EntityRecord) string {
	id := model.NormalizeID(target.ID)
	if id == "" {
		return ""
	}
	if owner, kind, ok := model.ClassifyOwner(id); ok && kind == model.KindPerson {
		return owner
	}
	return model.CompanyBase(id)
}
