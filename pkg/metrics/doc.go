// Package metrics tracks usage of deprecated endpoints with Prometheus.
//
// Metrics, with the default "sunsetd" prefix:
//
//   - sunsetd_requests_total{endpoint_id,method,status,action}
//   - sunsetd_redirects_total{endpoint_id,to_path}
//   - sunsetd_blocked_total{endpoint_id,reason}
//   - sunsetd_days_until_sunset{endpoint_id}
//   - sunsetd_request_duration_seconds{endpoint_id}
//   - sunsetd_config_reloads_total{result}
//   - sunsetd_endpoints
//
// Counters are updated from Decision values returned by the deprecation
// package; the evaluation itself never touches metrics.
package metrics
