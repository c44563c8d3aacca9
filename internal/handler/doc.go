// Package handler implements the gesture API of a diagram.
//
// Browsers post gestures (drags, clicks, zoom, connection forms) and the
// diagram answers through surface commands on the /events SSE stream.
// The HTTP reply only says whether the gesture was accepted.
//
// # Routes
//
//	GET    /api/scene                     last rendered scene
//	GET    /api/state                     interaction state
//	GET    /api/positions                 saved position overrides
//	POST   /api/tenant                    {empresa_id}
//	POST   /api/refresh
//	POST   /api/nodes/{id}/drag           {phase, x, y}
//	POST   /api/nodes/{id}/click
//	POST   /api/nodes/{id}/context
//	POST   /api/edges/{id}/click          id is the link key
//	POST   /api/zoom                      {x, y, k}
//	POST   /api/zoom/control              {k}
//	POST   /api/connections               {porta_origem_id, porta_destino_id, observacao}
//	POST   /api/connections/destination   {equipamento_id}
//	POST   /api/connections/cancel
//	DELETE /api/connections/{port_id}
//	GET    /events                        SSE stream
//
// Errors are returned as JSON with {error, details} structure.
package handler
