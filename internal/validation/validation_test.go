package validation_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"rfpintake/internal/validation"
)

type form struct {
	Name     string `json:"name" validate:"filled"`
	Email    string `json:"email" validate:"filled,emailshape"`
	Website  string `json:"website" validate:"filled,httpurl"`
	Password string `json:"password" validate:"bcryptsafe"`
}

func TestRules(t *testing.T) {
	v := validation.New()

	require.NoError(t, v.Struct(form{Name: "Acme", Email: "a@b.com", Website: "http://x.com"}))

	err := v.Struct(form{Name: "   ", Email: "not-an-email", Website: "www.x.com"})
	fe := validation.FieldErrors(err)
	require.Len(t, fe, 3)
	require.Equal(t, "name", fe[0].Field())
	require.Equal(t, "filled", fe[0].Tag())
	require.Equal(t, "emailshape", fe[1].Tag())
	require.Equal(t, "website", fe[2].Field())
	require.Equal(t, "httpurl", fe[2].Tag())

	long := make([]byte, 73)
	for i := range long {
		long[i] = 'a'
	}
	fe = validation.FieldErrors(v.Struct(form{Name: "a", Email: "a@b.co", Website: "https://a", Password: string(long)}))
	require.Len(t, fe, 1)
	require.Equal(t, "bcryptsafe", fe[0].Tag())
}

func TestStatusRules(t *testing.T) {
	type form struct {
		RFP    string `json:"rfp" validate:"rfpstatus"`
		Review string `json:"review" validate:"omitempty,reviewstatus"`
	}
	v := validation.New()

	require.NoError(t, v.Struct(form{RFP: "Active", Review: "Under Review"}))
	require.NoError(t, v.Struct(form{RFP: "Closed"}))

	fe := validation.FieldErrors(v.Struct(form{RFP: "Open", Review: "Maybe"}))
	require.Len(t, fe, 2)
	require.Equal(t, "rfp", fe[0].Field())
	require.Equal(t, "rfpstatus", fe[0].Tag())
	require.Equal(t, "review", fe[1].Field())
	require.Equal(t, "reviewstatus", fe[1].Tag())

	require.Nil(t, validation.FieldErrors(nil))
}
