// Package validation enforces the static input contract on inbound records
// and detects feature drift between datasets.
package validation

import (
	"fmt"
	"strings"

	"github.com/Manda404/obesity-predictor/dataset"
	"github.com/Manda404/obesity-predictor/pkg/errors"
)

// Record is one subject's raw attributes as received at the inference
// boundary. Field names mirror the dataset columns.
type Record struct {
	Gender                        string  `json:"Gender"`
	Age                           float64 `json:"Age"`
	Height                        float64 `json:"Height"`
	Weight                        float64 `json:"Weight"`
	FamilyHistoryWithOverweight   string  `json:"family_history_with_overweight"`
	FAVC                          string  `json:"FAVC"`
	FCVC                          float64 `json:"FCVC"`
	NCP                           float64 `json:"NCP"`
	CAEC                          string  `json:"CAEC"`
	SMOKE                         string  `json:"SMOKE"`
	CH2O                          float64 `json:"CH2O"`
	SCC                           string  `json:"SCC"`
	FAF                           float64 `json:"FAF"`
	TUE                           float64 `json:"TUE"`
	CALC                          string  `json:"CALC"`
	MTRANS                        string  `json:"MTRANS"`
}

// Static domain enumerations. These are the fixed contract of the schema,
// distinct from the vocabulary the preprocessor learns from training data.
var (
	genderValues    = []string{"Male", "Female"}
	yesNoValues     = []string{"yes", "no"}
	frequencyValues = []string{"no", "Sometimes", "Frequently", "Always"}
	transportValues = []string{"Automobile", "Motorbike", "Bike", "Public_Transportation", "Walking"}
)

type fieldIssue struct {
	field  string
	reason string
}

// ValidateRecords checks every record against the static schema. The first
// invalid record fails the whole batch with an error aggregating all of its
// offending fields; no partial acceptance happens within a batch.
func ValidateRecords(records []Record) error {
	if len(records) == 0 {
		return errors.NewSchemaError("validation", "request contains no records")
	}
	for i, r := range records {
		if issues := validateRecord(r); len(issues) > 0 {
			fields := make([]string, len(issues))
			reasons := make([]string, len(issues))
			for j, issue := range issues {
				fields[j] = issue.field
				reasons[j] = fmt.Sprintf("%s: %s", issue.field, issue.reason)
			}
			return errors.NewSchemaError(
				fmt.Sprintf("record[%d]", i),
				strings.Join(reasons, "; "),
				fields...,
			)
		}
	}
	return nil
}

func validateRecord(r Record) []fieldIssue {
	var issues []fieldIssue
	check := func(field, reason string, ok bool) {
		if !ok {
			issues = append(issues, fieldIssue{field: field, reason: reason})
		}
	}

	check("Age", "must be between 0 and 120", r.Age >= 0 && r.Age <= 120)
	check("Height", "must be positive", r.Height > 0)
	check("Weight", "must be positive", r.Weight > 0)
	check("FCVC", "must be between 0 and 3", r.FCVC >= 0 && r.FCVC <= 3)
	check("NCP", "must be between 0 and 5", r.NCP >= 0 && r.NCP <= 5)
	check("CH2O", "must be between 0 and 5", r.CH2O >= 0 && r.CH2O <= 5)
	check("FAF", "must be between 0 and 5", r.FAF >= 0 && r.FAF <= 5)
	check("TUE", "must be between 0 and 3", r.TUE >= 0 && r.TUE <= 3)

	check("Gender", oneOfMessage(genderValues), isOneOf(r.Gender, genderValues))
	check("family_history_with_overweight", oneOfMessage(yesNoValues), isOneOf(r.FamilyHistoryWithOverweight, yesNoValues))
	check("FAVC", oneOfMessage(yesNoValues), isOneOf(r.FAVC, yesNoValues))
	check("SMOKE", oneOfMessage(yesNoValues), isOneOf(r.SMOKE, yesNoValues))
	check("SCC", oneOfMessage(yesNoValues), isOneOf(r.SCC, yesNoValues))
	check("CAEC", oneOfMessage(frequencyValues), isOneOf(r.CAEC, frequencyValues))
	check("CALC", oneOfMessage(frequencyValues), isOneOf(r.CALC, frequencyValues))
	check("MTRANS", oneOfMessage(transportValues), isOneOf(r.MTRANS, transportValues))

	return issues
}

// isOneOf matches case-insensitively; the dataset mixes "yes" and "Yes".
func isOneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return true
		}
	}
	return false
}

// canonical rewrites a case-insensitive match to the enumeration's spelling.
// The preprocessor's learned vocabulary is case-sensitive, so a value like
// "MALE" must reach it as "Male" or it would one-hot to the all-zero vector.
func canonical(value string, allowed []string) string {
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return a
		}
	}
	return value
}

func oneOfMessage(allowed []string) string {
	return "must be one of [" + strings.Join(allowed, ", ") + "]"
}

// RecordsToTable converts validated records into the raw column layout the
// preprocessor expects, preserving record order.
func RecordsToTable(records []Record) (*dataset.Table, error) {
	n := len(records)
	numeric := map[string][]float64{}
	categorical := map[string][]string{}
	for _, name := range []string{"Age", "Height", "Weight", "FCVC", "NCP", "CH2O", "FAF", "TUE"} {
		numeric[name] = make([]float64, 0, n)
	}
	for _, name := range []string{"Gender", "family_history_with_overweight", "FAVC", "CAEC", "SMOKE", "SCC", "CALC", "MTRANS"} {
		categorical[name] = make([]string, 0, n)
	}

	for _, r := range records {
		numeric["Age"] = append(numeric["Age"], r.Age)
		numeric["Height"] = append(numeric["Height"], r.Height)
		numeric["Weight"] = append(numeric["Weight"], r.Weight)
		numeric["FCVC"] = append(numeric["FCVC"], r.FCVC)
		numeric["NCP"] = append(numeric["NCP"], r.NCP)
		numeric["CH2O"] = append(numeric["CH2O"], r.CH2O)
		numeric["FAF"] = append(numeric["FAF"], r.FAF)
		numeric["TUE"] = append(numeric["TUE"], r.TUE)

		categorical["Gender"] = append(categorical["Gender"], canonical(r.Gender, genderValues))
		categorical["family_history_with_overweight"] = append(categorical["family_history_with_overweight"], canonical(r.FamilyHistoryWithOverweight, yesNoValues))
		categorical["FAVC"] = append(categorical["FAVC"], canonical(r.FAVC, yesNoValues))
		categorical["CAEC"] = append(categorical["CAEC"], canonical(r.CAEC, frequencyValues))
		categorical["SMOKE"] = append(categorical["SMOKE"], canonical(r.SMOKE, yesNoValues))
		categorical["SCC"] = append(categorical["SCC"], canonical(r.SCC, yesNoValues))
		categorical["CALC"] = append(categorical["CALC"], canonical(r.CALC, frequencyValues))
		categorical["MTRANS"] = append(categorical["MTRANS"], canonical(r.MTRANS, transportValues))
	}

	// Column order mirrors the raw dataset header.
	cols := []dataset.Column{
		{Name: "Gender", Kind: dataset.Categorical, Strings: categorical["Gender"]},
		{Name: "Age", Kind: dataset.Numeric, Floats: numeric["Age"]},
		{Name: "Height", Kind: dataset.Numeric, Floats: numeric["Height"]},
		{Name: "Weight", Kind: dataset.Numeric, Floats: numeric["Weight"]},
		{Name: "family_history_with_overweight", Kind: dataset.Categorical, Strings: categorical["family_history_with_overweight"]},
		{Name: "FAVC", Kind: dataset.Categorical, Strings: categorical["FAVC"]},
		{Name: "FCVC", Kind: dataset.Numeric, Floats: numeric["FCVC"]},
		{Name: "NCP", Kind: dataset.Numeric, Floats: numeric["NCP"]},
		{Name: "CAEC", Kind: dataset.Categorical, Strings: categorical["CAEC"]},
		{Name: "SMOKE", Kind: dataset.Categorical, Strings: categorical["SMOKE"]},
		{Name: "CH2O", Kind: dataset.Numeric, Floats: numeric["CH2O"]},
		{Name: "SCC", Kind: dataset.Categorical, Strings: categorical["SCC"]},
		{Name: "FAF", Kind: dataset.Numeric, Floats: numeric["FAF"]},
		{Name: "TUE", Kind: dataset.Numeric, Floats: numeric["TUE"]},
		{Name: "CALC", Kind: dataset.Categorical, Strings: categorical["CALC"]},
		{Name: "MTRANS", Kind: dataset.Categorical, Strings: categorical["MTRANS"]},
	}
	return dataset.NewTable(cols)
}
