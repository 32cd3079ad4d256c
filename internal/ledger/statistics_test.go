package ledger

import (
	"time"

	"budget-tracker/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *LedgerTestSuite) TestStatistics() {
	suite.create(suite.alice, Input{Description: "Salary", Amount: "1000", Type: "income", Category: "salary", Date: "2024-02-01"})
	suite.create(suite.alice, Input{Description: "Groceries", Amount: "75", Type: "expense", Category: "food", Date: "2024-02-10"})
	suite.create(suite.alice, Input{Description: "Bus pass", Amount: "25", Type: "expense", Category: "transport", Date: "2024-02-29"})
	suite.create(suite.alice, Input{Description: "January rent", Amount: "500", Type: "expense", Category: "utilities", Date: "2024-01-31"})
	suite.create(suite.bob, Input{Description: "Bob's food", Amount: "10", Type: "expense", Category: "food", Date: "2024-02-10"})

	stats, err := suite.svc.Statistics(suite.ctx, suite.alice, 2024, time.February)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "1000.00", stats.Summary.TotalIncome.StringFixed(2))
	assert.Equal(suite.T(), "100.00", stats.Summary.TotalExpense.StringFixed(2))
	require.Len(suite.T(), stats.Expenses, 2)
	assert.Equal(suite.T(), models.CategoryFood, stats.Expenses[0].Category)
	assert.Equal(suite.T(), "75.0", stats.Expenses[0].Percentage.StringFixed(1))
	assert.Equal(suite.T(), "25.0", stats.Expenses[1].Percentage.StringFixed(1))
	require.Len(suite.T(), stats.Income, 1)
	assert.Equal(suite.T(), "100.0", stats.Income[0].Percentage.StringFixed(1))

	assert.Equal(suite.T(), time.January, stats.Prev().Month())
	assert.Equal(suite.T(), time.March, stats.Next().Month())
}

func (suite *LedgerTestSuite) TestStatisticsEmptyMonth() {
	stats, err := suite.svc.Statistics(suite.ctx, suite.alice, 2023, time.December)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), stats.Expenses)
	assert.Empty(suite.T(), stats.Income)
	assert.True(suite.T(), stats.Summary.Balance.IsZero())
	assert.Equal(suite.T(), 2024, stats.Next().Year())
}
