package service_test

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/bibbank/registry-risk/internal/domain/model"
)

func graphOf(edges ...[2]string) *model.OwnershipGraph {
	g := model.NewOwnershipGraph()
	for _, e := range edges {
		g.AddEdge(model.Relationship{From: e[0], To: e[1]})
	}
	return g
}

func edge(from, to string) [2]string { return [2]string{from, to} }

// completeDigraph links every ordered pair of distinct nodes.
func completeDigraph(n int) *model.OwnershipGraph {
	var edges [][2]string
	for i := 1; i <= n; i++ {
		for j := 1; j <= n; j++ {
			if i != j {
				edges = append(edges, edge(fmt.Sprint(i), fmt.Sprint(j)))
			}
		}
	}
	return graphOf(edges...)
}

func money(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// cnpj turns an 8-digit base into a 14-digit registry id.
func cnpj(base string) string { return base + "000100" }

func company(base, status string, capital int64, municipality string) model.EntityRecord {
	return model.EntityRecord{
		ID:           cnpj(base),
		Name:         "EMPRESA " + base,
		Capital:      money(capital),
		StatusCode:   status,
		SizeClass:    "03",
		State:        "SP",
		Municipality: municipality,
		ActivityCode: "4711301",
	}
}

func stake(owner, ownedBase, qualification string) model.PartnershipRecord {
	return model.PartnershipRecord{OwnerID: owner, OwnedEntityID: cnpj(ownedBase), Qualification: qualification}
}

const (
	personA = "***123456**"
	personB = "***654321**"
	personC = "***777888**"
)

// frontManScenario is a person holding 12 companies, 9 of them inactive,
// R$ 8,000 mean capital, one qualification and 10 of 12 in one municipality.
func frontManScenario() model.AnalysisInput {
	in := model.AnalysisInput{}
	for i := 0; i < 12; i++ {
		base := fmt.Sprintf("%08d", 10000000+i)
		status := "08"
		if i < 3 {
			status = model.StatusActive
		}
		city := "7107"
		if i >= 10 {
			city = "6001"
		}
		in.RelatedEntities = append(in.RelatedEntities, company(base, status, 8000, city))
		in.RelatedPartnerships = append(in.RelatedPartnerships, stake(personA, base, "49"))
	}
	return in
}
