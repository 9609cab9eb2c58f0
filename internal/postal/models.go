package postal

import (
	"time"

	"github.com/goccy/go-json"
)

type (
	// Office is a post office record as the directory API returns it.
	// Name, BranchType and Pincode are read for rendering; every upstream
	// field, known or not, is kept and written back unchanged.
	Office struct {
		Name       string
		BranchType string
		Pincode    string

		fields map[string]interface{}
	}

	// first element of the api.postalpincode.in answer
	pincodeAnswer struct {
		Status     *string  `json:"Status"`
		Message    string   `json:"Message"`
		PostOffice []Office `json:"PostOffice"`
	}

	// nominatim reverse answer
	reverseAnswer struct {
		Address *struct {
			Postcode *string `json:"postcode"`
		} `json:"address"`
		Error string `json:"error"`
	}

	CacheEntry struct {
		Pincode   string    `json:"pincode"`
		Offices   []Office  `json:"office_list"`
		FetchedAt time.Time `json:"fetched_at"`
	}
)

func (o *Office) UnmarshalJSON(b []byte) error {
	var fields map[string]interface{}
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}

	o.fields = fields
	o.Name, _ = fields["Name"].(string)
	o.BranchType, _ = fields["BranchType"].(string)
	o.Pincode, _ = fields["Pincode"].(string)
	return nil
}

func (o Office) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(o.fields)+3)
	for k, v := range o.fields {
		out[k] = v
	}

	set := func(key, value string) {
		if _, ok := out[key]; !ok || value != "" {
			out[key] = value
		}
	}
	set("Name", o.Name)
	set("BranchType", o.BranchType)
	set("Pincode", o.Pincode)

	return json.Marshal(out)
}

// Field returns an upstream field by its API name, nil when absent.
func (o Office) Field(name string) interface{} {
	return o.fields[name]
}
