package sqlinline

const QUpsertVote = `--sql eab2d026-e2c5-43c5-8f44-2059d28f76ab
insert into votes (user_id, photo_id, value)
values ($1::text, $2::uuid, $3::smallint)
on conflict (user_id, photo_id) do update
set value = excluded.value,
    created_at = now();
`

const QDeleteVote = `--sql c982a054-201c-44a5-8817-56aee3eba4d3
delete from votes
where user_id = $1::text and photo_id = $2::uuid;
`

const QSelectVote = `--sql 4d61ee76-a053-4f0a-917e-c447ca61952b
select value
from votes
where user_id = $1::text and photo_id = $2::uuid
limit 1;
`

const QRefreshPhotoVoteCount = `--sql d6f8d5c7-8c14-4c87-9b61-d98e53feab43
update photos
set vote_count = coalesce((select sum(v.value) from votes v where v.photo_id = $1::uuid), 0)
where id = $1::uuid
returning vote_count;
`
