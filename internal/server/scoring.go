package server

// Settlement is the full accounting of one finished game. Escrowed
// stakes of the final roster are redistributed in full, so summing the
// balance deltas of the remaining players always yields zero against
// their escrow.
type Settlement struct {
	Sets          []SetResult        `json:"sets"`
	FinalBalances map[string]float64 `json:"finalBalances"`
	Deltas        map[string]float64 `json:"deltas"`
	Usernames     map[string]string  `json:"usernames"`
	Points        map[string]float64 `json:"points"`
}

// SetResult is the per-set breakdown: who got voted for, how the vote
// scores came out, and how the set's stake pool was paid.
type SetResult struct {
	SetIndex       int                `json:"setIndex"`
	OriginalID     string             `json:"originalId"`
	OriginalAuthor string             `json:"originalAuthor"`
	VoteCounts     map[string]int     `json:"voteCounts"`
	Scores         map[string]float64 `json:"scores"`
	Pool           float64            `json:"pool"`
	Payouts        map[string]float64 `json:"payouts"`
}

// enterResults tallies every set, settles stakes, and moves the room to
// its terminal phase. Called with the room lock held; the resultsComputed
// guard makes a second entry a no-op.
func (s *Server) enterResults(room *Room) {
	if room.resultsComputed {
		return
	}
	room.resultsComputed = true
	s.timers.Cancel(room.ID)
	room.Phase = phaseResults

	s.assessPenalties(room)
	room.Settlement = s.settle(room)

	s.events.ToRoom(room.ID, eventGameResults, room.Settlement)
	s.log.Info().Str("room_id", room.ID).Int("sets", len(room.DrawingSets)).
		Msg("game settled")

	outcomes := snapshotOutcomes(room)
	for _, player := range room.Players {
		player.Stake = 0
	}
	go s.persistResults(outcomes)
}

// assessPenalties accumulates each player's percentage penalty: one
// increment per blank drawing they authored (placeholder copies count)
// and one per voting set they were eligible for but skipped.
func (s *Server) assessPenalties(room *Room) {
	for _, set := range room.DrawingSets {
		for _, drawing := range set.Drawings {
			if s.blank.IsBlank(drawing.Payload) {
				room.PercentagePenalties[drawing.AuthorID] += s.cfg.BlankPenaltyRate
			}
		}
		for _, voter := range room.eligibleVoters(set) {
			if _, voted := set.Votes[voter.ID]; !voted {
				room.PercentagePenalties[voter.ID] += s.cfg.NoVotePenaltyRate
			}
		}
	}
}

// settle converts votes into balance movements. Each player's escrowed
// stake is split equally across the sets they authored in; per set, the
// smallest contribution anchors the pool, contribution above it is
// refunded net of the author's penalty rate, and the pool pays out in
// proportion to vote scores. Players who authored no set get their
// stake straight back.
func (s *Server) settle(room *Room) *Settlement {
	roster := make(map[string]*Player, len(room.Players))
	for _, player := range room.Players {
		roster[player.ID] = player
	}

	setsAuthored := make(map[string]int)
	for _, set := range room.DrawingSets {
		for authorID := range set.setAuthors() {
			if _, present := roster[authorID]; present {
				setsAuthored[authorID]++
			}
		}
	}
	for _, player := range room.Players {
		if setsAuthored[player.ID] == 0 {
			player.Balance += player.Stake
		}
	}

	settlement := &Settlement{
		Sets:          make([]SetResult, 0, len(room.DrawingSets)),
		FinalBalances: make(map[string]float64, len(room.Players)),
		Deltas:        make(map[string]float64, len(room.Players)),
		Usernames:     make(map[string]string, len(room.Players)),
		Points:        make(map[string]float64, len(room.Players)),
	}

	for index, set := range room.DrawingSets {
		result := s.settleSet(room, roster, setsAuthored, index, set)
		settlement.Sets = append(settlement.Sets, result)
		for playerID, score := range result.Scores {
			settlement.Points[playerID] += score
		}
	}

	for _, player := range room.Players {
		settlement.FinalBalances[player.ID] = player.Balance
		settlement.Deltas[player.ID] = player.Balance - player.BalanceBefore
		settlement.Usernames[player.ID] = player.Username
	}
	return settlement
}

func (s *Server) settleSet(room *Room, roster map[string]*Player, setsAuthored map[string]int, index int, set *DrawingSet) SetResult {
	result := SetResult{
		SetIndex:   index,
		OriginalID: set.OriginalID,
		VoteCounts: make(map[string]int, len(set.Drawings)),
		Scores:     make(map[string]float64),
		Payouts:    make(map[string]float64),
	}

	var authors []*Player
	for authorID := range set.setAuthors() {
		if player, present := roster[authorID]; present {
			authors = append(authors, player)
		}
	}
	for _, drawing := range set.Drawings {
		if drawing.Kind == drawingKindOriginal {
			result.OriginalAuthor = drawing.AuthorID
			break
		}
	}

	for _, drawingID := range set.Votes {
		result.VoteCounts[drawingID]++
	}

	// Vote scores only accrue to players still on the roster.
	for _, drawing := range set.Drawings {
		player, present := roster[drawing.AuthorID]
		if !present {
			continue
		}
		votes := float64(result.VoteCounts[drawing.ID])
		if drawing.Kind == drawingKindOriginal {
			result.Scores[player.ID] += votes * s.cfg.OriginalVoteValue
		} else {
			result.Scores[player.ID] += votes * s.cfg.CopyVoteValue
		}
	}
	for voterID, drawingID := range set.Votes {
		voter, present := roster[voterID]
		if !present {
			continue
		}
		if drawingID == set.OriginalID {
			result.Scores[voterID] += s.cfg.CorrectVoteBonus
			voter.CorrectVotes++
		}
	}

	if len(authors) == 0 {
		return result
	}

	minShare := 0.0
	shares := make(map[string]float64, len(authors))
	for i, author := range authors {
		share := author.Stake / float64(setsAuthored[author.ID])
		shares[author.ID] = share
		if i == 0 || share < minShare {
			minShare = share
		}
	}

	pool := minShare * float64(len(authors))
	penaltySum := 0.0
	for _, author := range authors {
		excess := shares[author.ID] - minShare
		pct := room.PercentagePenalties[author.ID]
		if pct > 1 {
			pct = 1
		}
		penalty := excess * pct
		pool += penalty
		penaltySum += penalty
		refund := excess - penalty
		author.Balance += refund
		result.Payouts[author.ID] += refund
	}
	result.Pool = pool

	totalScore := 0.0
	for _, score := range result.Scores {
		totalScore += score
	}
	if totalScore > 0 {
		for playerID, score := range result.Scores {
			payout := pool * score / totalScore
			roster[playerID].Balance += payout
			result.Payouts[playerID] += payout
		}
		return result
	}

	// Nobody scored: contributions go back to their authors and the
	// penalty remainder is split across the whole roster.
	for _, author := range authors {
		author.Balance += minShare
		result.Payouts[author.ID] += minShare
	}
	if penaltySum > 0 && len(room.Players) > 0 {
		perPlayer := penaltySum / float64(len(room.Players))
		for _, player := range room.Players {
			player.Balance += perPlayer
			result.Payouts[player.ID] += perPlayer
		}
	}
	return result
}
