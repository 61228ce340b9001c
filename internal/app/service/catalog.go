package service

var sampleCatalog = []CreateProductInput{
	{
		Name:        "Wireless Headphones",
		Description: "High-quality wireless headphones with noise cancellation",
		Price:       99.99,
		Stock:       50,
		ImageURL:    "https://i.imgur.com/ZANVnHE.jpg",
	},
	{
		Name:        "Smart Watch",
		Description: "Fitness tracker with heart rate monitor",
		Price:       199.99,
		Stock:       30,
		ImageURL:    "https://i.imgur.com/mp3rUty.jpg",
	},
	{
		Name:        "Laptop Backpack",
		Description: "Water resistant laptop backpack with USB charging port",
		Price:       49.99,
		Stock:       100,
		ImageURL:    "https://i.imgur.com/9DqEOV5.jpg",
	},
	{
		Name:        "Running Shoes",
		Description: "Comfortable running shoes with excellent cushioning",
		Price:       89.99,
		Stock:       75,
		ImageURL:    "https://i.imgur.com/tXeOYWE.jpg",
	},
	{
		Name:        "Mechanical Keyboard",
		Description: "RGB mechanical keyboard with blue switches",
		Price:       129.99,
		Stock:       40,
		ImageURL:    "https://i.imgur.com/R3iobJA.jpg",
	},
	{
		Name:        "Wireless Mouse",
		Description: "Ergonomic wireless mouse with precision tracking",
		Price:       29.99,
		Stock:       120,
		ImageURL:    "https://i.imgur.com/w3Y8NwQ.jpg",
	},
}
