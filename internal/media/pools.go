package media

import "gidi_ingest/internal/domain"

var NewsPools = map[string][]string{
	domain.CategoryTraffic: {
		"https://images.unsplash.com/photo-1449824913935-59a10b8d2000?w=800&q=85",
		"https://images.unsplash.com/photo-1589578527966-fdac0f44566c?w=800&q=85",
		"https://images.unsplash.com/photo-1494515843206-f3117d3f51b7?w=800&q=85",
	},
	domain.CategoryEvents: {
		"https://images.unsplash.com/photo-1533174072545-7a4b6ad7a6c3?w=800&q=85",
		"https://images.unsplash.com/photo-1492684223066-81342ee5ff30?w=800&q=85",
		"https://images.unsplash.com/photo-1540575467063-178a50c2df87?w=800&q=85",
	},
	domain.CategoryNightlife: {
		"https://images.unsplash.com/photo-1514565131-fce0801e5785?w=800&q=85",
		"https://images.unsplash.com/photo-1566417713940-fe7c737a9ef2?w=800&q=85",
		"https://images.unsplash.com/photo-1470229722913-7c0e2dbbafd3?w=800&q=85",
	},
	domain.CategoryFood: {
		"https://images.unsplash.com/photo-1555939594-58d7cb561ad1?w=800&q=85",
		"https://images.unsplash.com/photo-1414235077428-338989a2e8c0?w=800&q=85",
		"https://images.unsplash.com/photo-1517248135467-4c7edcad34c4?w=800&q=85",
	},
	domain.CategoryGeneral: {
		"https://images.unsplash.com/photo-1568822617270-2e2b9c7c7a1e?w=800&q=85",
		"https://images.unsplash.com/photo-1480714378408-67cf0d13bc1b?w=800&q=85",
		"https://images.unsplash.com/photo-1477959858617-67f85cf4f1df?w=800&q=85",
	},
}

var VenuePools = map[string][]string{
	domain.VenueClub: {
		"https://images.unsplash.com/photo-1566417713940-fe7c737a9ef2?w=1000&q=85",
		"https://images.unsplash.com/photo-1514565131-fce0801e5785?w=1000&q=85",
		"https://images.unsplash.com/photo-1470229722913-7c0e2dbbafd3?w=1000&q=85",
	},
	domain.VenueBar: {
		"https://images.unsplash.com/photo-1572116469696-31de0f17cc34?w=1000&q=85",
		"https://images.unsplash.com/photo-1543007630-9710e4a00a20?w=1000&q=85",
		"https://images.unsplash.com/photo-1566417713940-fe7c737a9ef2?w=1000&q=85",
	},
	domain.VenueRestaurant: {
		"https://images.unsplash.com/photo-1517248135467-4c7edcad34c4?w=1000&q=85",
		"https://images.unsplash.com/photo-1555396273-367ea4eb4db5?w=1000&q=85",
		"https://images.unsplash.com/photo-1414235077428-338989a2e8c0?w=1000&q=85",
		"https://images.unsplash.com/photo-1552566626-52f8b828add9?w=1000&q=85",
	},
	domain.VenueLounge: {
		"https://images.unsplash.com/photo-1574484284002-952d92456975?w=1000&q=85",
		"https://images.unsplash.com/photo-1470229722913-7c0e2dbbafd3?w=1000&q=85",
		"https://images.unsplash.com/photo-1543007630-9710e4a00a20?w=1000&q=85",
	},
	domain.VenueRooftop: {
		"https://images.unsplash.com/photo-1551882547-ff40c63fe5fa?w=1000&q=85",
		"https://images.unsplash.com/photo-1559329007-40df8a9345d8?w=1000&q=85",
		"https://images.unsplash.com/photo-1533174072545-7a4b6ad7a6c3?w=1000&q=85",
	},
	domain.VenueBeachClub: {
		"https://images.unsplash.com/photo-1519046904884-53103b34b206?w=1000&q=85",
		"https://images.unsplash.com/photo-1507525428034-b723cf961d3e?w=1000&q=85",
		"https://images.unsplash.com/photo-1559827260-dc66d52bef19?w=1000&q=85",
	},
	domain.VenueEventCenter: {
		"https://images.unsplash.com/photo-1540575467063-178a50c2df87?w=1000&q=85",
		"https://images.unsplash.com/photo-1533174072545-7a4b6ad7a6c3?w=1000&q=85",
		"https://images.unsplash.com/photo-1492684223066-81342ee5ff30?w=1000&q=85",
	},
}
