package aws

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCloudWatch struct {
	inputs []*cloudwatch.PutMetricDataInput
}

func (f *fakeCloudWatch) PutMetricData(ctx context.Context, in *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	f.inputs = append(f.inputs, in)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestMetricsClient_Disabled(t *testing.T) {
	fake := &fakeCloudWatch{}
	m := &MetricsClient{client: fake, namespace: "Import"}
	assert.NoError(t, m.RecordCount(context.Background(), MetricImportRowsFailed, nil))
	assert.Empty(t, fake.inputs)

	var nilClient *MetricsClient
	assert.False(t, nilClient.IsEnabled())
	assert.NoError(t, nilClient.RecordTotal(context.Background(), MetricImportRowsInserted, 3, nil))
}

func TestMetricsClient_RecordsSortedDimensions(t *testing.T) {
	fake := &fakeCloudWatch{}
	m := &MetricsClient{client: fake, namespace: "Import", enabled: true}

	require.NoError(t, m.RecordTotal(context.Background(), MetricImportRowsInserted, 7, map[string]string{"Service": "import", "Module": "chuc-vu"}))
	require.NoError(t, m.RecordLatency(context.Background(), MetricImportDuration, 1500*time.Millisecond, nil))
	require.Len(t, fake.inputs, 2)

	d := fake.inputs[0].MetricData[0]
	assert.Equal(t, float64(7), *d.Value)
	assert.Equal(t, types.StandardUnitCount, d.Unit)
	assert.Equal(t, "Module", *d.Dimensions[0].Name)
	assert.Equal(t, "Service", *d.Dimensions[1].Name)
	assert.Equal(t, float64(1500), *fake.inputs[1].MetricData[0].Value)
}
