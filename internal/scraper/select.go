package scraper

// minNormalDuration is the floor, in seconds, below which a normal
// upload is ignored. Shorts and clip teasers stay under it.
const minNormalDuration = 300

// SelectCandidate picks the single video worth capturing from a sorted
// keyword match list. A live broadcast always wins; otherwise the first
// normal upload of at least five minutes; otherwise the first upcoming
// premiere. Returns false when nothing qualifies.
func SelectCandidate(videos []Video) (Video, bool) {
	var live, normal, upcoming []Video
	for _, v := range videos {
		switch {
		case v.IsLive:
			live = append(live, v)
		case v.IsUpcoming:
			upcoming = append(upcoming, v)
		default:
			normal = append(normal, v)
		}
	}

	if len(live) > 0 {
		return live[0], true
	}

	for _, v := range normal {
		if v.Duration >= minNormalDuration {
			return v, true
		}
	}

	if len(upcoming) > 0 {
		return upcoming[0], true
	}

	return Video{}, false
}
