package schema

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/KaramelBytes/concentra-cli/internal/dataset"
)

func sampleDataset() *dataset.Dataset {
	day := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	return dataset.New("sample", []string{"Year", "region", "amount", "booked_at", "active", "code", "empty"}, [][]dataset.Value{
		{dataset.Number(2020), dataset.Text("north"), dataset.Number(100), dataset.Timestamp(day), dataset.Bool(true), dataset.Number(7), dataset.Null()},
		{dataset.Number(2021), dataset.Text("south"), dataset.Number(50), dataset.Timestamp(day), dataset.Bool(false), dataset.Text("x9"), dataset.Null()},
	})
}

func TestClassify(t *testing.T) {
	ds := sampleDataset()
	s := Classify(ds)
	if want := []string{"amount"}; !reflect.DeepEqual(s.Numeric, want) {
		t.Errorf("numeric = %v, want %v", s.Numeric, want)
	}
	if want := []string{"region", "code"}; !reflect.DeepEqual(s.Categorical, want) {
		t.Errorf("categorical = %v, want %v", s.Categorical, want)
	}
	if want := []string{"Year", "booked_at"}; !reflect.DeepEqual(s.Temporal, want) {
		t.Errorf("temporal = %v, want %v", s.Temporal, want)
	}
	if got := s.RoleOf("active"); got != RoleUnclassified {
		t.Errorf("bool column role = %v", got)
	}
	if got := s.RoleOf("empty"); got != RoleUnclassified {
		t.Errorf("all-null column role = %v", got)
	}
	// mixed column canonicalized to text
	if v := ds.Column("code")[0]; v.Kind != dataset.KindText || v.Str != "7" {
		t.Errorf("code not canonicalized: %+v", v)
	}
	// temporal by name keeps its numeric values
	if v := ds.Column("Year")[0]; v.Kind != dataset.KindNumber {
		t.Errorf("Year should keep numeric representation, got %v", v.Kind)
	}
}

func TestClassifyRolesAreDisjoint(t *testing.T) {
	ds := dataset.New("d", []string{"date", "quarter", "revenue", "client", "week_of_year"}, [][]dataset.Value{
		{dataset.Number(20200101), dataset.Text("Q1"), dataset.Number(1), dataset.Text("a"), dataset.Number(3)},
	})
	s := Classify(ds)
	seen := map[string]int{}
	for _, list := range [][]string{s.Numeric, s.Categorical, s.Temporal} {
		for _, c := range list {
			seen[c]++
		}
	}
	for c, n := range seen {
		if n != 1 {
			t.Errorf("column %q appears in %d roles", c, n)
		}
	}
	if s.RoleOf("date") != RoleTemporal {
		t.Errorf("numeric column named date must be temporal")
	}
	if s.RoleOf("quarter") != RoleTemporal || s.RoleOf("week_of_year") != RoleTemporal {
		t.Errorf("name override not applied: %+v", s)
	}
	if len(seen) != ds.NumColumns() {
		t.Errorf("expected every column classified, got %v", seen)
	}
}

func TestReclassify(t *testing.T) {
	ds := sampleDataset()
	Classify(ds)
	s, err := Reclassify(ds, []string{"region", "amount"}, []string{"amount", "code"}, []string{"Year"})
	if err != nil {
		t.Fatalf("pairwise overlap should be accepted: %v", err)
	}
	if !reflect.DeepEqual(s.Categorical, []string{"region", "amount"}) {
		t.Errorf("categorical = %v", s.Categorical)
	}
	if s.Temporal[0] != "Year" || len(s.Temporal) != 1 {
		t.Errorf("temporal = %v (previous classification should be discarded)", s.Temporal)
	}
	if v := ds.Column("amount")[0]; v.Kind != dataset.KindText || v.Str != "100" {
		t.Errorf("amount not canonicalized: %+v", v)
	}
}

func TestReclassifyIdempotent(t *testing.T) {
	ds := sampleDataset()
	a, err := Reclassify(ds, []string{"region"}, []string{"amount"}, []string{"Year"})
	if err != nil {
		t.Fatal(err)
	}
	b, err := Reclassify(ds, []string{"region"}, []string{"amount"}, []string{"Year"})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(Summarize(ds, a), Summarize(ds, b)) {
		t.Fatalf("reclassification is not idempotent: %+v vs %+v", a, b)
	}
}

func TestReclassifyErrors(t *testing.T) {
	cases := []struct {
		name        string
		cat, num, t []string
		want        error
	}{
		{"missing column", []string{"region", "nope"}, nil, nil, dataset.ErrInvalidColumn},
		{"triple overlap", []string{"region"}, []string{"region"}, []string{"region"}, ErrConflictingClassification},
		{"missing wins over overlap", []string{"x"}, []string{"x"}, []string{"x"}, dataset.ErrInvalidColumn},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ds := sampleDataset()
			_, err := Reclassify(ds, c.cat, c.num, c.t)
			if !errors.Is(err, c.want) {
				t.Fatalf("got %v, want %v", err, c.want)
			}
			// no partial apply: amount must still be numeric
			if ds.Column("amount")[0].Kind != dataset.KindNumber {
				t.Fatalf("dataset mutated on failed reclassification")
			}
		})
	}
}

func TestReclassifyPairwiseOnly(t *testing.T) {
	ds := dataset.New("d", []string{"x"}, [][]dataset.Value{{dataset.Number(1)}})
	if _, err := Reclassify(ds, []string{"x"}, []string{"x"}, []string{"x"}); !errors.Is(err, ErrConflictingClassification) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := Reclassify(ds, []string{"x"}, []string{"x"}, nil); err != nil {
		t.Fatalf("pairwise overlap rejected: %v", err)
	}
}

func TestSummarizeJSONShape(t *testing.T) {
	ds := sampleDataset()
	s := Classify(ds)
	b, err := json.Marshal(Summarize(ds, s))
	if err != nil {
		t.Fatal(err)
	}
	out := string(b)
	for _, key := range []string{`"data_shape":[2,7]`, `"columns":`, `"numerical_columns":["amount"]`, `"categorical_columns":`, `"time_columns":["Year","booked_at"]`} {
		if !strings.Contains(out, key) {
			t.Errorf("missing %s in %s", key, out)
		}
	}
	empty := Summarize(dataset.New("e", nil, nil), Schema{})
	b, _ = json.Marshal(empty)
	if strings.Contains(string(b), "null") {
		t.Errorf("empty lists should serialize as []: %s", b)
	}
}
