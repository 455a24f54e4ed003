package catalog

// Default returns the static pizzeria catalog the simulator ships with.
func Default() (*Catalog, error) {
	return New([]Product{
		{SKU: "CLASSIC-PEPPERONI", Name: "Classic Pepperoni", Price: 599, Category: CategoryPizza},
		{SKU: "MARGHERITA", Name: "Margherita", Price: 549, Category: CategoryPizza},
		{SKU: "MEAT-LOVERS", Name: "Meat Lovers", Price: 799, Category: CategoryPizza},
		{SKU: "VEGGIE-SUPREME", Name: "Veggie Supreme", Price: 699, Category: CategoryPizza},
		{SKU: "HAWAIIAN", Name: "Hawaiian", Price: 649, Category: CategoryPizza},
		{SKU: "BBQ-CHICKEN", Name: "BBQ Chicken", Price: 749, Category: CategoryPizza},

		{SKU: "GARLIC-BREAD", Name: "Garlic Bread", Price: 249, Category: CategorySide},
		{SKU: "CHICKEN-WINGS", Name: "Chicken Wings (8pc)", Price: 499, Category: CategorySide},
		{SKU: "MOZZARELLA-STICKS", Name: "Mozzarella Sticks", Price: 399, Category: CategorySide},
		{SKU: "CAESAR-SALAD", Name: "Caesar Salad", Price: 349, Category: CategorySide},

		{SKU: "COLA-2L", Name: "Cola 2L", Price: 299, Category: CategoryDrink},
		{SKU: "LEMON-SODA-2L", Name: "Lemon Soda 2L", Price: 299, Category: CategoryDrink},
		{SKU: "WATER-BOTTLE", Name: "Bottled Water", Price: 149, Category: CategoryDrink},

		{SKU: "CHOC-BROWNIE", Name: "Chocolate Brownie", Price: 299, Category: CategoryDessert},
		{SKU: "CINNAMON-STICKS", Name: "Cinnamon Sticks", Price: 349, Category: CategoryDessert},
	})
}
