package config

// UnlimitedLimit is the sentinel marking a quota as unbounded.
const UnlimitedLimit = -1

// Plan defines the monthly allowances of a subscription tier.
type Plan struct {
	ID              string
	Name            string
	PatientLimit    int // -1 = unlimited
	AICallLimit     int
	MaxSeats        int
	PriceCentsMonth int
}

// TokenPackage is a purchasable pool of extra AI-call allowance. Tokens do
// not expire and are consumed only after the monthly quota is exhausted.
type TokenPackage struct {
	ID         string
	Tokens     int
	PriceCents int
}

// DefaultPlanID is the plan assigned to lazily created accounts.
const DefaultPlanID = "trial"

var plans = map[string]Plan{
	"trial":    {ID: "trial", Name: "Trial", PatientLimit: 5, AICallLimit: 25, MaxSeats: 1, PriceCentsMonth: 0},
	"solo":     {ID: "solo", Name: "Solo Practitioner", PatientLimit: 25, AICallLimit: 150, MaxSeats: 1, PriceCentsMonth: 2900},
	"practice": {ID: "practice", Name: "Practice", PatientLimit: 100, AICallLimit: 600, MaxSeats: 5, PriceCentsMonth: 7900},
	"clinic":   {ID: "clinic", Name: "Clinic", PatientLimit: UnlimitedLimit, AICallLimit: 2500, MaxSeats: 20, PriceCentsMonth: 19900},
}

var tokenPackages = map[string]TokenPackage{
	"starter":  {ID: "starter", Tokens: 25, PriceCents: 900},
	"standard": {ID: "standard", Tokens: 60, PriceCents: 1900},
	"bulk":     {ID: "bulk", Tokens: 150, PriceCents: 3900},
}

// PlanByID looks up a plan by identifier.
func PlanByID(id string) (Plan, bool) {
	p, ok := plans[id]
	return p, ok
}

// DefaultPlan returns the plan used for lazily created trial accounts.
func DefaultPlan() Plan {
	return plans[DefaultPlanID]
}

// TokenPackageByID looks up a purchasable token package.
func TokenPackageByID(id string) (TokenPackage, bool) {
	p, ok := tokenPackages[id]
	return p, ok
}

// Plans returns all subscription plans.
func Plans() []Plan {
	out := make([]Plan, 0, len(plans))
	for _, p := range plans {
		out = append(out, p)
	}
	return out
}
