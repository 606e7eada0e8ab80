package chart

import "github.com/querychat/querychat/internal/database"

// Fixture is a deterministic sample result set shaped to exercise one chart
// type. Fixtures back the chart showcase endpoint and the engine's own
// tests; neither the database nor the completion service is involved.
type Fixture struct {
	Query string
	SQL   string
	Data  database.ResultSet
}

// Fixtures returns the showcase data keyed by short chart name
// (bar, line, pie, scatter, area, table).
func Fixtures() map[string]Fixture {
	return map[string]Fixture{
		"bar": {
			Query: "Show me products by category",
			SQL:   "SELECT category, COUNT(*) as count FROM products GROUP BY category",
			Data: database.ResultSet{
				Columns: []string{"category", "count"},
				Rows: []database.Row{
					{"category": "Electronics", "count": 4},
					{"category": "Furniture", "count": 3},
					{"category": "Stationery", "count": 2},
					{"category": "Accessories", "count": 1},
				},
			},
		},
		"line": {
			Query: "Show me orders by month",
			SQL:   "SELECT DATE_TRUNC('month', order_date) as month, COUNT(*) as orders FROM orders GROUP BY month ORDER BY month",
			Data: database.ResultSet{
				Columns: []string{"month", "orders"},
				Rows: []database.Row{
					{"month": "2024-01-01", "orders": 3},
					{"month": "2024-02-01", "orders": 5},
					{"month": "2024-03-01", "orders": 4},
					{"month": "2024-04-01", "orders": 6},
					{"month": "2024-05-01", "orders": 8},
				},
			},
		},
		"pie": {
			Query: "Show me order status distribution",
			SQL:   "SELECT status, COUNT(*) * 100.0 / (SELECT COUNT(*) FROM orders) as percentage FROM orders GROUP BY status",
			Data: database.ResultSet{
				Columns: []string{"status", "percentage"},
				Rows: []database.Row{
					{"status": "Delivered", "percentage": 60.0},
					{"status": "Pending", "percentage": 25.0},
					{"status": "Cancelled", "percentage": 15.0},
				},
			},
		},
		"scatter": {
			Query: "Show relationship between price and stock",
			SQL:   "SELECT price, stock_quantity FROM products",
			Data: database.ResultSet{
				Columns: []string{"price", "stock_quantity"},
				Rows: []database.Row{
					{"price": 1299.99, "stock_quantity": 45},
					{"price": 29.99, "stock_quantity": 150},
					{"price": 249.99, "stock_quantity": 30},
					{"price": 599.99, "stock_quantity": 20},
					{"price": 12.99, "stock_quantity": 200},
					{"price": 399.99, "stock_quantity": 35},
					{"price": 89.99, "stock_quantity": 80},
					{"price": 45.99, "stock_quantity": 60},
				},
			},
		},
		"area": {
			Query: "Show revenue and order volume over time",
			SQL:   "SELECT DATE_TRUNC('month', order_date) as month, SUM(total_amount) as revenue, COUNT(*) as orders FROM orders GROUP BY month ORDER BY month",
			Data: database.ResultSet{
				Columns: []string{"month", "revenue", "orders"},
				Rows: []database.Row{
					{"month": "2024-01-01", "revenue": 3500, "orders": 3},
					{"month": "2024-02-01", "revenue": 4200, "orders": 5},
					{"month": "2024-03-01", "revenue": 3800, "orders": 4},
					{"month": "2024-04-01", "revenue": 5100, "orders": 6},
					{"month": "2024-05-01", "revenue": 6300, "orders": 8},
				},
			},
		},
		"table": {
			Query: "Show all products",
			SQL:   "SELECT * FROM products",
			Data: database.ResultSet{
				Columns: []string{"product_id", "product_name", "category", "price", "stock_quantity"},
				Rows: []database.Row{
					{"product_id": 1, "product_name": "Laptop Pro 15", "category": "Electronics", "price": 1299.99, "stock_quantity": 45},
					{"product_id": 2, "product_name": "Wireless Mouse", "category": "Electronics", "price": 29.99, "stock_quantity": 150},
					{"product_id": 3, "product_name": "Office Chair", "category": "Furniture", "price": 249.99, "stock_quantity": 30},
					{"product_id": 4, "product_name": "Standing Desk", "category": "Furniture", "price": 599.99, "stock_quantity": 20},
					{"product_id": 5, "product_name": "USB-C Cable", "category": "Accessories", "price": 12.99, "stock_quantity": 200},
				},
			},
		},
	}
}
