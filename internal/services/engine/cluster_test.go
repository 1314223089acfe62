package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"AfriPulse/internal/domain/models"
)

func clusterRecord(country string, age, fert, growth, dep float64) models.IndicatorRecord {
	return models.IndicatorRecord{
		Country: country, Year: 2020,
		MedianAge:       models.F(age),
		FertilityRate:   models.F(fert),
		GrowthRate:      models.F(growth),
		TotalDependency: models.F(dep),
	}
}

// twoGroupRecords form two well-separated demographic profiles: young
// high-fertility countries and older low-fertility ones.
func twoGroupRecords() []models.IndicatorRecord {
	return []models.IndicatorRecord{
		clusterRecord("NER", 15.2, 6.8, 3.8, 109),
		clusterRecord("MLI", 16.3, 5.9, 3.0, 100),
		clusterRecord("TCD", 16.6, 6.3, 3.1, 102),
		clusterRecord("UGA", 16.7, 4.7, 3.2, 92),
		clusterRecord("TUN", 32.7, 2.2, 0.9, 49),
		clusterRecord("MUS", 37.5, 1.4, 0.1, 41),
		clusterRecord("SYC", 34.2, 2.4, 0.5, 46),
	}
}

func TestClusterIsDeterministic(t *testing.T) {
	c := NewClusterer(DefaultParams().Cluster)
	ctx := context.Background()

	first, err := c.Cluster(ctx, 2020, twoGroupRecords())
	require.NoError(t, err)
	second, err := c.Cluster(ctx, 2020, twoGroupRecords())
	require.NoError(t, err)

	assert.Equal(t, first.K, second.K)
	assert.Equal(t, first.Silhouette, second.Silhouette)
	assert.Equal(t, first.Assignments, second.Assignments)
	assert.Equal(t, first.Centroids, second.Centroids)
}

func TestClusterSeparatesObviousGroups(t *testing.T) {
	c := NewClusterer(DefaultParams().Cluster)
	res, err := c.Cluster(context.Background(), 2020, twoGroupRecords())
	require.NoError(t, err)
	require.GreaterOrEqual(t, res.K, 2)

	byCountry := make(map[string]int)
	for _, a := range res.Assignments {
		require.True(t, a.Assigned, "country %s unassigned", a.Country)
		byCountry[a.Country] = a.Cluster
	}
	// The Sahelian group stays together and apart from the aged islands.
	assert.Equal(t, byCountry["NER"], byCountry["MLI"])
	assert.Equal(t, byCountry["NER"], byCountry["TCD"])
	assert.Equal(t, byCountry["TUN"], byCountry["MUS"])
	assert.NotEqual(t, byCountry["NER"], byCountry["TUN"])
	assert.Greater(t, res.Silhouette, 0.0)
}

func TestClusterReportsIncompleteCountriesUnassigned(t *testing.T) {
	c := NewClusterer(DefaultParams().Cluster)
	recs := twoGroupRecords()
	partial := clusterRecord("SSD", 17, 4.5, 2.8, 95)
	partial.MedianAge = models.MissingFloat
	recs = append(recs, partial)

	res, err := c.Cluster(context.Background(), 2020, recs)
	require.NoError(t, err)

	var ssd *models.ClusterAssignment
	for i := range res.Assignments {
		if res.Assignments[i].Country == "SSD" {
			ssd = &res.Assignments[i]
		}
	}
	require.NotNil(t, ssd, "incomplete country must still appear")
	assert.False(t, ssd.Assigned)
	assert.Equal(t, -1, ssd.Cluster)
}

func TestClusterTooFewCountries(t *testing.T) {
	c := NewClusterer(DefaultParams().Cluster)
	res, err := c.Cluster(context.Background(), 2020, []models.IndicatorRecord{
		clusterRecord("NGA", 18, 5.2, 2.5, 84),
	})
	require.NoError(t, err)
	assert.Zero(t, res.K)
	assert.Len(t, res.Assignments, 0)
}

func TestClusterHonorsContextCancellation(t *testing.T) {
	c := NewClusterer(DefaultParams().Cluster)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Cluster(ctx, 2020, twoGroupRecords())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestClusterSkipsOtherYears(t *testing.T) {
	c := NewClusterer(DefaultParams().Cluster)
	recs := twoGroupRecords()
	stray := clusterRecord("EGY", 24, 3.2, 1.7, 61)
	stray.Year = 2019
	recs = append(recs, stray)

	res, err := c.Cluster(context.Background(), 2020, recs)
	require.NoError(t, err)
	for _, a := range res.Assignments {
		assert.NotEqual(t, "EGY", a.Country)
	}
}
