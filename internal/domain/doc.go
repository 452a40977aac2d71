// Package domain holds the pure navigation model: coordinates and great-circle
// distance, routes and their guide steps, hazard normalization and proximity
// queries, the guide-step tracker and the position error taxonomy.
//
// # Coordinate Conventions
//
// Hazard records and position fixes use (latitude, longitude). The routing
// service sends path points as [longitude, latitude]; the swap happens once,
// in [RouteOption.ToRoute], and nowhere else.
//
// Road-damage reports carry a combined "roadreport_latlng" string in
// "lng,lat" order. Subsidence datasets use separate fields whose names vary by
// publisher:
//
//	latitude / longitude
//	lat / lng
//	lat / lon
//	y / x
//	Y / X
//
// A zero in either component is the upstream placeholder for "not geocoded"
// and the record is dropped.
//
// # Hazard IDs
//
// A record with a natural identifier (roadreport_num, id or ID) gets
// "<tag>:<value>". Anything else gets "<tag>#<index>" from its position in
// the dataset. Both are stable across repeated normalization of the same
// payload, which is all dedup needs within a session.
//
// # Guide Thresholds
//
// A guide step is pre-announced inside [PreAnnounceRadius] (50 m) and passed
// inside [AdvanceRadius] (15 m). One fix can do both.
package domain
