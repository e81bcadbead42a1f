package storage

const transactionColumns = "id, user_id, amount, description, type, category, created_at"

const (
	insertTransactionSQL = `INSERT INTO transactions (user_id, amount, description, type, category, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

	listTransactionsSQL = `SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = ?
ORDER BY created_at DESC, id DESC`

	listTransactionsBetweenSQL = `SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = ? AND created_at >= ? AND created_at < ?
ORDER BY created_at DESC, id DESC`

	getTransactionSQL = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	clearTransactionsSQL = `DELETE FROM transactions WHERE user_id = ?`

	deleteTransactionSQL = `DELETE FROM transactions WHERE id = ?`

	statisticsSQL = `SELECT
    COUNT(*),
    COALESCE(SUM(CASE WHEN type = 'income' THEN amount END), 0),
    COALESCE(SUM(CASE WHEN type = 'expense' THEN amount END), 0)
FROM transactions
WHERE user_id = ?`

	insertRuleSQL = `INSERT INTO user_categories (user_id, category_name, keywords, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (user_id, category_name) DO NOTHING`

	listRulesSQL = `SELECT category_name, keywords FROM user_categories
WHERE user_id = ?
ORDER BY id`

	deleteRuleSQL = `DELETE FROM user_categories WHERE user_id = ? AND category_name = ?`
)
