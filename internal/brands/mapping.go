package brands

import (
	"encoding/json"
	"fmt"

	"github.com/prismhq/prism/pkg/query"
	"github.com/prismhq/prism/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "brands", "b").
	Project("id", "ID").
	Project("customer_id", "CustomerID").
	Project("name", "Name").
	Project("products", "Products").
	Project("websites", "Websites").
	Project("serialized_disabled", "SerializedDisabled")

func scanBrand(s repository.Scanner) (Brand, error) {
	var b Brand
	var productsRaw, websitesRaw []byte

	err := s.Scan(
		&b.ID,
		&b.CustomerID,
		&b.Name,
		&productsRaw,
		&websitesRaw,
		&b.SerializedDisabled,
	)

	if err != nil {
		return b, err
	}

	if len(productsRaw) > 0 {
		if err := json.Unmarshal(productsRaw, &b.Products); err != nil {
			return b, fmt.Errorf("unmarshal products: %w", err)
		}
	}

	if len(websitesRaw) > 0 {
		if err := json.Unmarshal(websitesRaw, &b.Websites); err != nil {
			return b, fmt.Errorf("unmarshal websites: %w", err)
		}
	}

	if b.Products == nil {
		b.Products = []string{}
	}

	if b.Websites == nil {
		b.Websites = []string{}
	}

	return b, nil
}
