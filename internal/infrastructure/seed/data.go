package seed

type productSeed struct {
	name     string
	slug     string
	desc     string
	price    string
	stock    int
	category string
	image    string
}

var categories = []struct{ name, slug string }{
	{"Electronics", "electronics"},
	{"Clothing", "clothing"},
	{"Home & Garden", "home-garden"},
	{"Sports & Outdoors", "sports"},
	{"Books", "books"},
	{"Beauty & Health", "beauty"},
	{"Toys & Games", "toys"},
	{"Automotive", "automotive"},
}

var products = []productSeed{
	{"Wireless Bluetooth Headphones", "wireless-bluetooth-headphones",
		"Premium wireless headphones with active noise cancellation and 30-hour battery life.",
		"149.99", 50, "electronics", "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=800"},
	{"Smart Watch Pro", "smart-watch-pro",
		"Advanced smartwatch with health monitoring, GPS, and smartphone integration.",
		"299.99", 30, "electronics", "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=800"},
	{"Portable Bluetooth Speaker", "portable-bluetooth-speaker",
		"Waterproof portable speaker with 360-degree sound and 12-hour playtime.",
		"79.99", 100, "electronics", "https://images.unsplash.com/photo-1608043152269-423dbba4e7e1?w=800"},
	{"Wireless Charging Pad", "wireless-charging-pad",
		"Fast wireless charger compatible with all Qi-enabled devices.",
		"34.99", 120, "electronics", "https://images.unsplash.com/photo-1586816879360-004f5b0c51e5?w=800"},
	{"USB-C Hub Adapter", "usb-c-hub-adapter",
		"7-in-1 USB-C hub with HDMI, USB 3.0, SD card reader, and power delivery.",
		"49.99", 80, "electronics", "https://images.unsplash.com/photo-1593642532400-2682810df593?w=800"},
	{"Classic Cotton T-Shirt", "classic-cotton-tshirt",
		"100% organic cotton t-shirt for everyday wear.",
		"29.99", 200, "clothing", "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?w=800"},
	{"Denim Jacket", "denim-jacket",
		"Classic denim jacket with a modern fit.",
		"89.99", 45, "clothing", ""},
	{"Wool Sweater", "wool-sweater",
		"Warm merino wool sweater.",
		"79.99", 60, "clothing", ""},
	{"Casual Hoodie", "casual-hoodie",
		"Soft fleece hoodie with kangaroo pocket.",
		"59.99", 150, "clothing", ""},
	{"Running Sneakers", "running-sneakers",
		"Lightweight running shoes with responsive cushioning.",
		"129.99", 75, "sports", ""},
	{"Yoga Mat Premium", "yoga-mat-premium",
		"Non-slip yoga mat with alignment lines.",
		"49.99", 150, "sports", ""},
	{"Fitness Dumbbells Set", "fitness-dumbbells-set",
		"Adjustable dumbbells set for home workouts.",
		"199.99", 40, "sports", ""},
	{"Resistance Bands Set", "resistance-bands-set",
		"Five resistance bands with handles and door anchor.",
		"24.99", 200, "sports", ""},
	{"Modern Table Lamp", "modern-table-lamp",
		"Minimalist table lamp with adjustable brightness.",
		"59.99", 60, "home-garden", ""},
	{"Indoor Plant Set", "indoor-plant-set",
		"Set of three easy-care indoor plants.",
		"44.99", 40, "home-garden", ""},
	{"Throw Blanket", "throw-blanket",
		"Soft knitted throw blanket.",
		"39.99", 100, "home-garden", ""},
	{"Decorative Pillows Set", "decorative-pillows-set",
		"Set of two decorative pillows.",
		"34.99", 80, "home-garden", ""},
	{"JavaScript Guide", "javascript-guide",
		"Comprehensive guide to modern JavaScript.",
		"39.99", 100, "books", ""},
	{"Design Patterns Book", "design-patterns-book",
		"Classic reference on reusable object-oriented design.",
		"44.99", 75, "books", ""},
	{"Skincare Set", "skincare-set",
		"Complete daily skincare routine set.",
		"89.99", 60, "beauty", ""},
	{"Hair Care Bundle", "hair-care-bundle",
		"Shampoo, conditioner and hair mask bundle.",
		"54.99", 90, "beauty", ""},
	{"Building Blocks Set", "building-blocks-set",
		"Creative building blocks set with 500 pieces.",
		"34.99", 120, "toys", ""},
	{"RC Racing Car", "rc-racing-car",
		"Remote control racing car with rechargeable battery.",
		"49.99", 50, "toys", ""},
	{"Car Phone Mount", "car-phone-mount",
		"Universal car phone mount with 360-degree rotation.",
		"19.99", 200, "automotive", "https://images.unsplash.com/photo-1563298723-dcfebaa392e3?w=800"},
	{"Car Vacuum Cleaner", "car-vacuum-cleaner",
		"Portable car vacuum cleaner with strong suction power.",
		"39.99", 80, "automotive", "https://images.unsplash.com/photo-1558618666-fcd25c85cd64?w=800"},
}
