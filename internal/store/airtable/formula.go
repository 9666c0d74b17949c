package airtable

import (
	"fmt"
	"strings"

	"rfpintake/internal/store"
)

// Formula переводит фильтр в filterByFormula
func Formula(f store.Filter) (string, error) {
	switch f := f.(type) {
	case store.Eq:
		return fmt.Sprintf("{%s} = '%s'", f.Field, quote(f.Value)), nil
	case store.AfterNow:
		return fmt.Sprintf("IS_AFTER({%s}, NOW())", f.Field), nil
	case store.And:
		parts := make([]string, 0, len(f))
		for _, sub := range f {
			p, err := Formula(sub)
			if err != nil {
				return "", err
			}
			parts = append(parts, p)
		}
		return "AND(" + strings.Join(parts, ", ") + ")", nil
	default:
		return "", fmt.Errorf("unsupported filter %T", f)
	}
}

var quoter = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func quote(v string) string {
	return quoter.Replace(v)
}
