// Package live streams a component's painted views to browsers.
//
// A Server exposes:
//
//	GET /healthz  liveness probe
//	GET /view     the last published view as JSON
//	GET /ws       WebSocket stream of {"seq": n, "view": ...} frames
//	GET /metrics  Prometheus metrics
//
// Wire it to a component with OnPaint:
//
//	srv := live.NewServer(live.DefaultConfig())
//	c.OnPaint(func(v View) { srv.Publish(v) })
//	http.ListenAndServe(":8080", srv.Handler())
package live
